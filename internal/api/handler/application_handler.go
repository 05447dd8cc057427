package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	service application.Service
	logger  *slog.Logger
}

func NewApplicationHandler(s application.Service, l *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: s,
		logger:  l.With("component", "ApplicationHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrSubmissionFailed):
		status, message = http.StatusServiceUnavailable, "Submission could not be accepted, please retry."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getUUIDFromURL(r *http.Request, param string) (uuid.UUID, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s not found in URL path", param)
	}
	return uuid.Parse(idStr)
}

// SubmitApplication accepts a loan application for asynchronous processing.
//
// @Summary Submit a loan application
// @Description This endpoint accepts a loan application together with the applicant's details. The application is persisted as SUBMITTED and queued for the decision workers; the decision itself arrives asynchronously and can be polled via GET /applications/{applicationID}.
// @Tags Applications
// @Accept json
// @Produce json
// @Param request body dto.SubmitApplicationRequest true "Application submission payload"
// @Success 202 {object} dto.ApplicationResponse "Application accepted for processing"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 503 {object} dto.ErrorResponse "Submission could not be persisted"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [post]
// @Security BearerAuth
func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	app, err := h.service.SubmitApplication(r.Context(), application.Submission{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		CreditScore: req.CreditScore,
		Amount:      req.AmountFloat(),
		TermMonths:  req.TermMonths,
		Purpose:     req.Purpose,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, dto.NewApplicationResponse(app))
}

// GetApplication retrieves a loan application and its current status.
//
// @Summary Retrieve application status
// @Description This endpoint retrieves a loan application by its ID, including the current status and, once decided, the decision reason and timestamp.
// @Tags Applications
// @Produce json
// @Param applicationID path string true "Application ID (UUID)"
// @Success 200 {object} dto.ApplicationResponse "Application successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid application ID"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications/{applicationID} [get]
// @Security BearerAuth
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID, err := getUUIDFromURL(r, "applicationID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	app, err := h.service.GetApplication(r.Context(), applicationID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewApplicationResponse(app))
}
