package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error kinds rendered in the "error" field of a response body.
const (
	KindNotFound        = "NotFound"
	KindConflict        = "UniqueViolation"
	KindUnauthenticated = "Unauthenticated"
	KindForbidden       = "Forbidden"
	KindInvalidRequest  = "InvalidRequest"
	KindInternal        = "InternalError"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind       string
	Message    string
	HTTPStatus int
	Headers    map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body is the single-object error shape.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Body renders the error for the wire.
func (e *DomainError) Body() Body {
	return Body{Error: e.Kind, Message: e.Message, Code: e.HTTPStatus}
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind, message string, status int) *DomainError {
	return &DomainError{Kind: kind, Message: message, HTTPStatus: status}
}

func NewNotFound(message string) error {
	return NewDomainError(KindNotFound, message, http.StatusNotFound)
}

func NewConflict(message string) error {
	return NewDomainError(KindConflict, message, http.StatusConflict)
}

// NewUnauthenticated carries the bearer challenge header.
func NewUnauthenticated(message string) error {
	err := NewDomainError(KindUnauthenticated, message, http.StatusUnauthorized)
	err.Headers = map[string]string{"WWW-Authenticate": "Bearer"}
	return err
}

func NewForbidden(message string) error {
	return NewDomainError(KindForbidden, message, http.StatusForbidden)
}

func NewInvalidRequest(message string) error {
	return NewDomainError(KindInvalidRequest, message, http.StatusBadRequest)
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Violation is one field-indexed validation problem.
type Violation struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError lists every problem found in a request before it reached the store.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d problem(s), first: %s", len(e.Violations), e.Violations[0].Msg)
}

// Add records a violation at the given location.
func (e *ValidationError) Add(typ, msg string, loc ...string) {
	e.Violations = append(e.Violations, Violation{Loc: loc, Msg: msg, Type: typ})
}

// OrNil returns e when it holds violations and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError holding a single violation.
func NewValidationError(typ, msg string, loc ...string) error {
	verr := &ValidationError{}
	verr.Add(typ, msg, loc...)
	return verr
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return NewDomainError(KindNotFound, "resource not found", http.StatusNotFound)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to the application taxonomy.
func MapError(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return ToDomainError(err)
}
