package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid config", ErrInvalidConfig, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
		{"transport error", NewTransportError("recv", fmt.Errorf("socket closed")), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"connection timeout", ErrConnectionTimeout, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
		{"configuration error", NewConfigurationError("registry", "conflicting id", nil), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
		{"decode error", NewDecodeError("payload", fmt.Errorf("short buffer")), true},
		{"overflow", NewOverflow(100, 64), true},
		{"unknown message id", NewUnknownMessageId(7), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"connection timeout", ErrConnectionTimeout, ErrorTransient},
		{"invalid config", ErrInvalidConfig, ErrorFatal},
		{"decode error", NewDecodeError("header", fmt.Errorf("bad length")), ErrorInvalid},
		{"unknown error", fmt.Errorf("unknown error"), ErrorTransient},
		{"classified error", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Classify(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	ce := newClassified(ErrorTransient, baseErr, "testComponent", "testOperation", "custom message")

	if ce.Class != ErrorTransient {
		t.Errorf("expected ErrorTransient, got %v", ce.Class)
	}
	if ce.Component != "testComponent" {
		t.Errorf("expected testComponent, got %s", ce.Component)
	}
	if ce.Operation != "testOperation" {
		t.Errorf("expected testOperation, got %s", ce.Operation)
	}
	if ce.Error() != "custom message" {
		t.Errorf("expected 'custom message', got %s", ce.Error())
	}
	if !errors.Is(ce, baseErr) {
		t.Error("classified error should unwrap to base error")
	}
}

func TestClassifiedError_NoMessage(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	ce := newClassified(ErrorTransient, baseErr, "testComponent", "testOperation", "")

	if ce.Error() != "base error" {
		t.Errorf("expected 'base error', got %s", ce.Error())
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		component string
		method    string
		action    string
		expected  string
	}{
		{"nil error", nil, "component", "method", "action", ""},
		{
			"basic wrap",
			fmt.Errorf("original error"),
			"RequestServer",
			"dispatch",
			"decode command",
			"RequestServer.dispatch: decode command failed: original error",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Wrap(test.err, test.component, test.method, test.action)
			if test.expected == "" {
				if result != nil {
					t.Errorf("expected nil, got %v", result)
				}
			} else if result == nil || result.Error() != test.expected {
				t.Errorf("expected '%s', got '%v'", test.expected, result)
			}
		})
	}
}

func TestWrapClassified(t *testing.T) {
	baseErr := fmt.Errorf("original error")

	tests := []struct {
		name     string
		wrapFunc func(error, string, string, string) error
		class    ErrorClass
	}{
		{"WrapTransient", WrapTransient, ErrorTransient},
		{"WrapFatal", WrapFatal, ErrorFatal},
		{"WrapInvalid", WrapInvalid, ErrorInvalid},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.wrapFunc(baseErr, "component", "method", "action")

			var ce *ClassifiedError
			if !errors.As(result, &ce) {
				t.Error("result should be a ClassifiedError")
				return
			}
			if ce.Class != test.class {
				t.Errorf("expected %v, got %v", test.class, ce.Class)
			}
			if !strings.Contains(ce.Error(), "component.method: action failed") {
				t.Errorf("error should contain standard format, got: %s", ce.Error())
			}
		})
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	config := DefaultRetryConfig()

	tests := []struct {
		name     string
		err      error
		attempt  int
		expected bool
	}{
		{"nil error", nil, 0, false},
		{"max retries exceeded", ErrConnectionTimeout, 3, false},
		{"transient error within limit", ErrConnectionTimeout, 1, true},
		{"fatal error", ErrInvalidConfig, 1, false},
		{"custom transient", fmt.Errorf("connection timeout"), 1, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := config.ShouldRetry(test.err, test.attempt)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v, attempt: %d",
					test.expected, result, test.err, test.attempt)
			}
		})
	}
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	errorsConfig := RetryConfig{
		MaxRetries:    5,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 1.5,
	}

	retryConfig := errorsConfig.ToRetryConfig()

	if retryConfig.MaxAttempts != 6 {
		t.Errorf("expected MaxAttempts %d, got %d", 6, retryConfig.MaxAttempts)
	}
	if retryConfig.InitialDelay != 200*time.Millisecond {
		t.Errorf("expected InitialDelay %v, got %v", 200*time.Millisecond, retryConfig.InitialDelay)
	}
	if retryConfig.MaxDelay != 10*time.Second {
		t.Errorf("expected MaxDelay %v, got %v", 10*time.Second, retryConfig.MaxDelay)
	}
	if retryConfig.Multiplier != 1.5 {
		t.Errorf("expected Multiplier %f, got %f", 1.5, retryConfig.Multiplier)
	}
	if !retryConfig.AddJitter {
		t.Error("expected AddJitter to be true")
	}
}

func TestStandardErrors(t *testing.T) {
	standardErrors := []error{
		ErrAlreadyStarted,
		ErrNotStarted,
		ErrAlreadyStopped,
		ErrShuttingDown,
		ErrNoConnection,
		ErrConnectionLost,
		ErrConnectionTimeout,
		ErrInvalidConfig,
		ErrMissingConfig,
	}

	for i, err := range standardErrors {
		if err == nil {
			t.Errorf("standard error at index %d is nil", i)
		}
		if err.Error() == "" {
			t.Errorf("standard error at index %d has empty message", i)
		}
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("registry", "id 1 already bound to a different type", nil)
	if !strings.Contains(err.Error(), "registry") || !strings.Contains(err.Error(), "already bound") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	wrapped := NewConfigurationError("socket", "double start", ErrAlreadyStarted)
	if !errors.Is(wrapped, ErrAlreadyStarted) {
		t.Error("expected wrapped ConfigurationError to unwrap to ErrAlreadyStarted")
	}
}

func TestOverflow(t *testing.T) {
	err := NewOverflow(100, 64)
	if err.Needed != 100 || err.Capacity != 64 {
		t.Errorf("unexpected fields: %+v", err)
	}
	if !strings.Contains(err.Error(), "100") || !strings.Contains(err.Error(), "64") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDecodeError(t *testing.T) {
	cause := fmt.Errorf("truncated buffer")
	err := NewDecodeError("payload", cause)
	if !errors.Is(err, cause) {
		t.Error("expected DecodeError to unwrap to cause")
	}
}

func TestUnknownMessageId(t *testing.T) {
	byID := NewUnknownMessageId(42)
	if !strings.Contains(byID.Error(), "42") {
		t.Errorf("unexpected message: %s", byID.Error())
	}

	byType := NewUnknownMessageType("Setter")
	if !strings.Contains(byType.Error(), "Setter") {
		t.Errorf("unexpected message: %s", byType.Error())
	}
}

func TestHandlerAbsent(t *testing.T) {
	err := NewHandlerAbsent(7)
	if err.CommandType != 7 {
		t.Errorf("expected CommandType 7, got %d", err.CommandType)
	}
}

func TestWrapConfigDecodeUnknown(t *testing.T) {
	if WrapConfig(nil, "registry", "Register") != nil {
		t.Error("expected nil for nil error")
	}
	cfgErr := WrapConfig(fmt.Errorf("id conflict"), "registry", "Register")
	if !IsFatal(cfgErr) {
		t.Error("expected WrapConfig result to classify as fatal")
	}

	decErr := WrapDecode(fmt.Errorf("short buffer"), "registry", "Decode")
	if !IsInvalid(decErr) {
		t.Error("expected WrapDecode result to classify as invalid")
	}

	if !IsInvalid(WrapUnknownMessageID(5)) {
		t.Error("expected WrapUnknownMessageID result to classify as invalid")
	}
	if !IsInvalid(WrapUnknownType("Setter")) {
		t.Error("expected WrapUnknownType result to classify as invalid")
	}
}

func TestTransportError(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := NewTransportError("receive", cause)
	if !errors.Is(err, cause) {
		t.Error("expected TransportError to unwrap to cause")
	}
	if !strings.Contains(err.Error(), "receive") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func BenchmarkIsTransient(b *testing.B) {
	err := ErrConnectionTimeout
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsTransient(err)
	}
}

func BenchmarkClassify(b *testing.B) {
	err := ErrConnectionTimeout
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(err)
	}
}

func BenchmarkWrap(b *testing.B) {
	err := fmt.Errorf("base error")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Wrap(err, "component", "method", "action")
	}
}
