package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/graphconnect/graphconnect/internal/graph"
	"github.com/graphconnect/graphconnect/internal/middleware"
	"github.com/graphconnect/graphconnect/internal/service"
	"github.com/graphconnect/graphconnect/internal/validation"
)

// SendMail handles POST /api/v1/mail/send
func (h *Handler) SendMail(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	meta := service.SendMeta{
		RequestID:   middleware.GetRequestID(r.Context()),
		IPAddress:   middleware.ClientIP(r),
		AccessToken: middleware.GetAccessToken(r.Context()),
	}

	err := h.mailSvc.Send(r.Context(), req, meta)
	if err != nil {
		h.writeSendError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) writeSendError(w http.ResponseWriter, err error) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeErrorWithDetails(w, http.StatusBadRequest, "validation_error", "Request validation failed", fieldErrs)
		return
	}

	switch {
	case errors.Is(err, service.ErrNoCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "A Graph access token is required")
		return
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "token_invalid", "The access token is invalid or expired")
		return
	}

	// Graph rejections are upstream failures, including its 401/403.
	if apiErr, ok := graph.IsAPIError(err); ok {
		h.log.Warn().Int("graph_status", apiErr.StatusCode).Str("graph_code", apiErr.Code).Msg("graph rejected mail")
		writeError(w, http.StatusBadGateway, apiErr.Code, apiErr.Message)
		return
	}

	h.log.Error().Err(err).Msg("send mail failed")
	writeError(w, http.StatusBadGateway, "graph_unavailable", "The mail service could not be reached")
}

// ListSentMail handles GET /api/v1/mail/sent
func (h *Handler) ListSentMail(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.mailSvc.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list mail audit")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list sent mail")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": entries,
		"count": len(entries),
	})
}
