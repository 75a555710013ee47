package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/alokemajumder/rrweb-server/internal/domain"
	"github.com/alokemajumder/rrweb-server/internal/logger"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

// Ingestor is satisfied by *ingest.Service.
type Ingestor interface {
	Ingest(ctx context.Context, raw []byte) (domain.AccessGrant, error)
}

type SessionsHandler struct {
	svc Ingestor
}

func NewSessionsHandler(svc Ingestor) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /upload-session.
func (h *SessionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.Fail(w, http.StatusRequestEntityTooLarge, response.MsgBodyTooLarge)
			return
		}
		logger.Ctx(r.Context()).Warn().Err(err).Msg("failed to read request body")
		response.Err(w, r, domain.ErrValidation("invalid payload"))
		return
	}

	grant, err := h.svc.Ingest(r.Context(), raw)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, uploadResponse{URL: grant.URL})
}
