// Package errors provides standardized error classification plus the
// messaging-runtime fault kinds named in spec.md §7.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelingevolution/cppplumberd/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Component lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")
	ErrShuttingDown   = errors.New("component is shutting down")

	// Connection and networking errors
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	var te *TransportError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "network", "temporary", "unavailable", "busy"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return true
	}

	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrMissingConfig)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return true
	}
	var oe *Overflow
	if errors.As(err, &oe) {
		return true
	}
	var ue *UnknownMessageId
	if errors.As(err, &ue) {
		return true
	}
	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsTransient(err) {
		return ErrorTransient
	}
	return ErrorTransient
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrapped, component, method, wrapped.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrapped, component, method, wrapped.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrapped, component, method, wrapped.Error())
}

// RetryConfig defines configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}
	return IsTransient(err)
}

// ToRetryConfig converts to the retry framework's Config type.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
	}
}

// --- messaging-runtime fault kinds (spec.md §7) ---

// ConfigurationError is raised by registration conflicts, nil sockets, or
// double-start of a component. Fatal to the builder that raised it.
type ConfigurationError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: configuration error: %s: %v", e.Component, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: configuration error: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(component, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Reason: reason, Err: err}
}

// WrapConfig wraps err as a ConfigurationError raised by component.method.
func WrapConfig(err error, component, method string) error {
	if err == nil {
		return nil
	}
	return NewConfigurationError(component, method+": "+err.Error(), err)
}

// Overflow is raised when the frame codec cannot fit encoded bytes into
// the caller-supplied buffer.
type Overflow struct {
	Needed, Capacity int
}

func (e *Overflow) Error() string {
	return fmt.Sprintf("frame overflow: needed %d bytes, capacity %d", e.Needed, e.Capacity)
}

// NewOverflow builds an Overflow error.
func NewOverflow(needed, capacity int) *Overflow {
	return &Overflow{Needed: needed, Capacity: capacity}
}

// DecodeError is raised when frame or payload parsing fails.
type DecodeError struct {
	Context string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error (%s): %v", e.Context, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecodeError builds a DecodeError.
func NewDecodeError(context string, err error) *DecodeError {
	return &DecodeError{Context: context, Err: err}
}

// WrapDecode wraps err as a DecodeError raised by component.method.
func WrapDecode(err error, component, method string) error {
	if err == nil {
		return nil
	}
	return NewDecodeError(component+"."+method, err)
}

// UnknownMessageId is raised when no registration exists for a seen id,
// or no id is registered for a seen type.
type UnknownMessageId struct {
	ID   uint32
	Type string
}

func (e *UnknownMessageId) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unknown message type %q", e.Type)
	}
	return fmt.Sprintf("unknown message id %d", e.ID)
}

// NewUnknownMessageId builds an UnknownMessageId error for an id lookup.
func NewUnknownMessageId(id uint32) *UnknownMessageId { return &UnknownMessageId{ID: id} }

// NewUnknownMessageType builds an UnknownMessageId error for a type lookup.
func NewUnknownMessageType(typeName string) *UnknownMessageId {
	return &UnknownMessageId{Type: typeName}
}

// WrapUnknownMessageID builds an UnknownMessageId error for an id lookup.
func WrapUnknownMessageID(id uint32) error { return NewUnknownMessageId(id) }

// WrapUnknownType builds an UnknownMessageId error for a type lookup.
func WrapUnknownType(typeName string) error { return NewUnknownMessageType(typeName) }

// HandlerAbsent is raised when the server has no handler registered for a
// known command id.
type HandlerAbsent struct {
	CommandType uint32
}

func (e *HandlerAbsent) Error() string {
	return fmt.Sprintf("no handler registered for command type %d", e.CommandType)
}

// NewHandlerAbsent builds a HandlerAbsent error.
func NewHandlerAbsent(commandType uint32) *HandlerAbsent {
	return &HandlerAbsent{CommandType: commandType}
}

// TransportError wraps an underlying socket error with the operation that
// triggered it, so callers can distinguish shutdown-induced failures from
// genuine transport failures (spec.md §7).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError builds a TransportError.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}
