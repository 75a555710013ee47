package domain

import "fmt"

type ErrCode string

const (
	CodeValidation ErrCode = "validation_error"
	CodeForbidden  ErrCode = "forbidden"
	CodeConfig     ErrCode = "config_error"
	CodeStorage    ErrCode = "storage_error"
	CodeInternal   ErrCode = "internal_error"
)

// Stage names the ingestion step that rejected a request.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageAuthorize Stage = "authorize"
	StageKey       Stage = "key"
	StageStore     Stage = "store"
	StageSign      Stage = "sign"
)

// AppError carries a caller-safe Message. Err is the internal cause and is
// only ever logged.
type AppError struct {
	Code    ErrCode
	Message string
	Stage   Stage
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// IsClientFault reports whether the request itself was at fault.
func (e *AppError) IsClientFault() bool {
	return e.Code == CodeValidation || e.Code == CodeForbidden
}

const (
	MsgForbidden = "domain not allowed or token invalid"
	MsgNoBucket  = "storage bucket not configured for domain"
	MsgStorage   = "error uploading session"
	MsgInternal  = "internal server error"
)

func ErrValidation(msg string) error {
	return &AppError{Code: CodeValidation, Message: msg, Stage: StageValidate}
}

// ErrForbidden hides cause from the caller; every forbidden outcome renders
// the same message.
func ErrForbidden(cause error) error {
	return &AppError{Code: CodeForbidden, Message: MsgForbidden, Stage: StageAuthorize, Err: cause}
}

func ErrConfig(cause error) error {
	return &AppError{Code: CodeConfig, Message: MsgNoBucket, Stage: StageAuthorize, Err: cause}
}

func ErrStorage(stage Stage, cause error) error {
	return &AppError{Code: CodeStorage, Message: MsgStorage, Stage: stage, Err: cause}
}

func ErrInternal(stage Stage, cause error) error {
	return &AppError{Code: CodeInternal, Message: MsgInternal, Stage: stage, Err: cause}
}
