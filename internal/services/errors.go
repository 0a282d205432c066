package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"       // validation failure, blocks the transition
	ErrorNotFound     ErrorCode = "not_found"     // unknown user/questionnaire/session/question
	ErrorState        ErrorCode = "state"         // action not legal in the session's current state
	ErrorConflict     ErrorCode = "conflict"      // uniqueness violation (e.g. duplicate email)
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorForbidden    ErrorCode = "forbidden"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewStateError(msg string) error    { return &ServiceError{Code: ErrorState, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
