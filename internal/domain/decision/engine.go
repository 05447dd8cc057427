// Package decision holds the approval rule. Decide is pure: no I/O, no
// clock, same inputs same outcome. Callers supply the client's current
// credit score, read at decision time rather than snapshotted at submission.
package decision

import "fmt"

type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

const (
	// MinCreditScore is exclusive: a score must exceed it to qualify.
	MinCreditScore = 600
	// MaxAmount is exclusive: an amount must stay below it to qualify.
	MaxAmount = 10000.0
)

type Decision struct {
	Outcome Outcome
	Reason  string
}

func Decide(creditScore int, amount float64) Decision {
	if creditScore <= MinCreditScore {
		return Decision{
			Outcome: OutcomeRejected,
			Reason:  fmt.Sprintf("credit score %d does not exceed minimum %d", creditScore, MinCreditScore),
		}
	}
	if amount >= MaxAmount {
		return Decision{
			Outcome: OutcomeRejected,
			Reason:  fmt.Sprintf("amount %.2f is not below limit %.2f", amount, MaxAmount),
		}
	}
	return Decision{
		Outcome: OutcomeApproved,
		Reason:  fmt.Sprintf("credit score %d and amount %.2f within thresholds", creditScore, amount),
	}
}
