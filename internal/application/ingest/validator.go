package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

// MaxSessionIDLen bounds the client session id, in bytes, before it is
// embedded in a storage key.
const MaxSessionIDLen = 128

// sessionPayload fields are declared in check order; the first failing field
// is the one reported.
type sessionPayload struct {
	SessionID   string            `json:"sessionId" validate:"required,maxbytes=128,printable"`
	Events      []json.RawMessage `json:"events" validate:"required,min=1"`
	PageURL     string            `json:"pageUrl" validate:"required"`
	Host        string            `json:"host" validate:"required"`
	Timestamp   json.RawMessage   `json:"timestamp"`
	DomainToken string            `json:"domainToken" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = validate.RegisterValidation("printable", validatePrintable)
	_ = validate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes bounds the byte length; the builtin max counts runes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

func validatePrintable(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Validate checks the structure of a raw ingestion request. It never looks
// inside events and has no side effects.
func Validate(raw []byte) (*domain.SessionRecord, error) {
	var p sessionPayload
	if err := decodeExact(raw, &p); err != nil {
		return nil, domain.ErrValidation("invalid payload")
	}

	if err := validate.Struct(&p); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return nil, domain.ErrValidation(describe(ves[0]))
		}
		return nil, domain.ErrValidation("invalid payload")
	}

	return &domain.SessionRecord{
		SessionID:   p.SessionID,
		Events:      p.Events,
		PageURL:     p.PageURL,
		Host:        p.Host,
		Timestamp:   p.Timestamp,
		DomainToken: p.DomainToken,
	}, nil
}

// decodeExact fills p from keys that match the field names exactly.
// encoding/json alone would also accept "SESSIONID" or "Host".
func decodeExact(raw []byte, p *sessionPayload) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	targets := map[string]any{
		"sessionId":   &p.SessionID,
		"events":      &p.Events,
		"pageUrl":     &p.PageURL,
		"host":        &p.Host,
		"timestamp":   &p.Timestamp,
		"domainToken": &p.DomainToken,
	}
	for name, dst := range targets {
		v, ok := fields[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return err
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("invalid payload: %s is required", fe.Field())
	case "min":
		return fmt.Sprintf("invalid payload: %s must not be empty", fe.Field())
	case "maxbytes":
		return fmt.Sprintf("invalid payload: %s exceeds %s bytes", fe.Field(), fe.Param())
	case "printable":
		return fmt.Sprintf("invalid payload: %s contains non-printable characters", fe.Field())
	default:
		return fmt.Sprintf("invalid payload: %s is invalid", fe.Field())
	}
}
