package awl

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNoMatchingBinding
	ErrCodeAmbiguousMatch
	ErrCodeActivation
	ErrCodeCyclicDependency
	ErrCodeDeactivation
	ErrCodeInvalidBinding
	ErrCodeScopeNotFound
	ErrCodeValidationFailed
	ErrCodeKernelClosed
	ErrCodeHealthCheckFailed
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:           "UNKNOWN",
	ErrCodeNoMatchingBinding: "NO_MATCHING_BINDING",
	ErrCodeAmbiguousMatch:    "AMBIGUOUS_MATCH",
	ErrCodeActivation:        "ACTIVATION_FAILED",
	ErrCodeCyclicDependency:  "CYCLIC_DEPENDENCY",
	ErrCodeDeactivation:      "DEACTIVATION_FAILED",
	ErrCodeInvalidBinding:    "INVALID_BINDING",
	ErrCodeScopeNotFound:     "SCOPE_NOT_FOUND",
	ErrCodeValidationFailed:  "VALIDATION_FAILED",
	ErrCodeKernelClosed:      "KERNEL_CLOSED",
	ErrCodeHealthCheckFailed: "HEALTH_CHECK_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Sentinels for errors.Is. They match any *Error with the same code anywhere
// in a wrapped chain, so an activation failure caused by a cycle satisfies
// both ErrActivation and ErrCyclicDependency.
var (
	ErrNoMatchingBinding = &Error{Code: ErrCodeNoMatchingBinding}
	ErrAmbiguousMatch    = &Error{Code: ErrCodeAmbiguousMatch}
	ErrActivation        = &Error{Code: ErrCodeActivation}
	ErrCyclicDependency  = &Error{Code: ErrCodeCyclicDependency}
	ErrDeactivation      = &Error{Code: ErrCodeDeactivation}
	ErrInvalidBinding    = &Error{Code: ErrCodeInvalidBinding}
	ErrScopeNotFound     = &Error{Code: ErrCodeScopeNotFound}
	ErrValidationFailed  = &Error{Code: ErrCodeValidationFailed}
	ErrKernelClosed      = &Error{Code: ErrCodeKernelClosed}
	ErrHealthCheckFailed = &Error{Code: ErrCodeHealthCheckFailed}
)

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Cause   error
	Stack   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithStack(stack []string) *Error {
	e.Stack = stack
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errNoMatchingBinding(req *Request) *Error {
	msg := "no matching bindings are available, and the service is not self-bindable"
	if req.Constraint != nil {
		msg = "no matching bindings satisfy the constraint"
	}
	return newError(ErrCodeNoMatchingBinding, msg, nil).
		WithService(req.Service.String()).
		WithStack(req.path())
}

func errAmbiguousMatch(req *Request, count int) *Error {
	return newError(
		ErrCodeAmbiguousMatch,
		fmt.Sprintf("%d bindings match a request that requires a unique result", count),
		nil,
	).WithService(req.Service.String()).WithStack(req.path())
}

func errActivation(service Service, message string, cause error) *Error {
	return newError(ErrCodeActivation, message, cause).WithService(service.String())
}

func errCyclicDependency(service Service, chain []string) *Error {
	return newError(
		ErrCodeCyclicDependency,
		fmt.Sprintf("cyclic dependency detected: %s", strings.Join(chain, " -> ")),
		nil,
	).WithService(service.String()).WithStack(chain)
}

func errDeactivation(service string, cause error) *Error {
	return newError(ErrCodeDeactivation, "deactivation failed", cause).WithService(service)
}

func errInvalidBinding(service Service, message string) *Error {
	return newError(ErrCodeInvalidBinding, message, nil).WithService(service.String())
}

func errScopeNotFound(service Service, message string) *Error {
	return newError(ErrCodeScopeNotFound, message, nil).WithService(service.String())
}

func errKernelClosed() *Error {
	return newError(ErrCodeKernelClosed, "kernel is closed", nil)
}

func IsNoMatchingBinding(err error) bool {
	return errors.Is(err, ErrNoMatchingBinding)
}

func IsAmbiguousMatch(err error) bool {
	return errors.Is(err, ErrAmbiguousMatch)
}

func IsActivation(err error) bool {
	return errors.Is(err, ErrActivation)
}

func IsCyclicDependency(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

func IsDeactivation(err error) bool {
	return errors.Is(err, ErrDeactivation)
}

func IsInvalidBinding(err error) bool {
	return errors.Is(err, ErrInvalidBinding)
}

func IsScopeNotFound(err error) bool {
	return errors.Is(err, ErrScopeNotFound)
}

func IsKernelClosed(err error) bool {
	return errors.Is(err, ErrKernelClosed)
}

func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

func IsHealthCheckFailed(err error) bool {
	return errors.Is(err, ErrHealthCheckFailed)
}
