// Package errors provides the classification and fault taxonomy used
// across the messaging runtime.
//
// Three-class classification (Transient, Invalid, Fatal) follows the
// pattern the teacher codebase uses throughout its own errors package:
// classification over string matching, wrapping over replacement,
// errors.Is/As over type switches.
//
// On top of that general-purpose scaffolding this package defines the
// fault kinds spec.md §7 names for the messaging runtime itself:
// ConfigurationError, Overflow, DecodeError, UnknownMessageId,
// HandlerAbsent and TransportError. ConfigurationError, DecodeError and
// UnknownMessageId also have Wrap helpers (WrapConfig, WrapDecode,
// WrapUnknownMessageID/WrapUnknownType) that attach component/operation
// context the same way WrapTransient/WrapFatal/WrapInvalid do; Overflow,
// HandlerAbsent and TransportError have constructors only. IsFatal matches
// ConfigurationError, IsInvalid matches DecodeError, Overflow and
// UnknownMessageId, and IsTransient matches TransportError; HandlerAbsent
// is matched by none of the three.
//
// Command and event faults raised by user handlers (spec.md's Fault and
// TypedFault[E]) are NOT defined here — they live in package plumberd
// because TypedFault is generic over the registered payload type and the
// registry it is decoded against.
package errors
