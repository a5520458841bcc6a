// SPDX-License-Identifier: MIT

// Package apperr defines the error taxonomy shared by the relay components and
// the single function that maps an error to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the route layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUpstream
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrValidation = errors.New("invalid request")
	ErrUpstream   = errors.New("upstream failure")
	ErrNotFound   = errors.New("not found")
)

// Error wraps a sentinel with operation context and, for upstream failures,
// the status code the provider answered with.
type Error struct {
	Kind    Kind
	Op      string
	Status  int // upstream HTTP status, 0 for transport failures
	Message string
	Err     error // lower-level cause (net.Error, json error, ...)
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.sentinel().Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is lets errors.Is match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindUpstream:
		return ErrUpstream
	case KindNotFound:
		return ErrNotFound
	default:
		return errors.New("internal error")
	}
}

// Validation reports a malformed or incomplete client request.
func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Upstream reports a provider failure. status is 0 when no response arrived.
func Upstream(op string, status int, message string, cause error) error {
	return &Error{Kind: KindUpstream, Op: op, Status: status, Message: message, Err: cause}
}

// NotFound reports that a requested item does not exist in the upstream payload.
func NotFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the route layer answers with.
// NotFound intentionally shares 500 with upstream failures to stay compatible
// with existing clients.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream, KindNotFound:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human readable message for err without operation
// prefixes, suitable for the "details" field of a JSON error body.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
