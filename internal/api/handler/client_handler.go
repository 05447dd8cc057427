package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/domain/client"
	"origination-engine/internal/pkg/apperrors"
)

type ClientHandler struct {
	service client.Service
	logger  *slog.Logger
}

func NewClientHandler(s client.Service, l *slog.Logger) *ClientHandler {
	return &ClientHandler{
		service: s,
		logger:  l.With("component", "ClientHandler"),
	}
}

// GetClient retrieves a client profile.
//
// @Summary Retrieve client details
// @Description This endpoint retrieves a client by its ID, including the credit score used when deciding the client's applications.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 200 {object} dto.ClientResponse "Client successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [get]
// @Security BearerAuth
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(c))
}
