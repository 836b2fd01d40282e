package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)

// Session and tool failures. Each maps onto a numeric ErrorResult code.
var (
	ErrNoSession          = errors.New("no session")
	ErrNotFound           = errors.New("not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrCreationFailed     = errors.New("creation failed")
	ErrMissingCredentials = errors.New("credentials missing")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRemoteFailure      = errors.New("remote call failed")
	ErrToolSelection      = errors.New("tool selection failed")
	ErrInvalidArguments   = errors.New("invalid tool arguments")
)

const (
	CodeNoSession          = 100
	CodeNotFound           = 101
	CodeSessionExpired     = 102
	CodeCreationFailed     = 103
	CodeMissingCredentials = 104
	CodeInvalidCredentials = 105
	CodeRemoteFailure      = 106
	CodeToolSelection      = 107
	CodeInvalidArguments   = 108
	CodeInternal           = 500
)

var errorCodes = []struct {
	err  error
	code int
}{
	{ErrNoSession, CodeNoSession},
	{ErrNotFound, CodeNotFound},
	{ErrSessionExpired, CodeSessionExpired},
	{ErrCreationFailed, CodeCreationFailed},
	{ErrMissingCredentials, CodeMissingCredentials},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrRemoteFailure, CodeRemoteFailure},
	{ErrToolSelection, CodeToolSelection},
	{ErrInvalidArguments, CodeInvalidArguments},
	{ErrSchemaViolation, CodeToolSelection},
	{ErrModelInvoke, CodeToolSelection},
	{ErrValidation, CodeInvalidArguments},
}

// CodeOf classifies err by the first matching sentinel in its chain.
func CodeOf(err error) int {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// ErrorResultFrom converts any error into the structured payload returned to callers.
func ErrorResultFrom(err error) ErrorResult {
	if err == nil {
		return ErrorResult{Code: CodeInternal, Message: "unknown error"}
	}
	return ErrorResult{Code: CodeOf(err), Message: err.Error()}
}
