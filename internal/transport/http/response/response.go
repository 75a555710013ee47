package response

import (
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

// MsgBodyTooLarge is returned with 413.
const MsgBodyTooLarge = "request body too large"

// ErrorBody is the only error shape clients see: {"error":"..."}.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with Content-Type.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Err renders err. Only AppError messages reach the client; anything else
// becomes a generic 500.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if errors.As(err, &ae) {
		Fail(w, StatusFromCode(ae.Code), ae.Message)
		return
	}

	// keep details in logs only
	zlog.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	Fail(w, http.StatusInternalServerError, domain.MsgInternal)
}

func StatusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
