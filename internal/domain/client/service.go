package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

type Service interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("client repository cannot be nil")
	}
	return &service{
		repo:   repo,
		logger: logger.With(slog.String("component", "clientService")),
	}
}

func (s *service) GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	logCtx := s.logger.With(slog.String("clientID", clientID.String()))
	logCtx.InfoContext(ctx, "Fetching client")

	c, err := s.repo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Client not found")
			return nil, apperrors.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error fetching client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get client %s: %w", clientID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved client")
	return c, nil
}
