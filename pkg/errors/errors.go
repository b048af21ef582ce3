// Package errors provides custom error types for the MediaIntel engine.
// These errors enable programmatic error checking and keep the
// data-problem/environment-problem split explicit: validators report data
// issues as values, and only environment or programming faults surface as
// errors from this package.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the engine
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrLocked indicates that an advisory lock is held by another owner
	ErrLocked = errors.New("lock held")

	// ErrStoreUnavailable indicates that a backing store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSessionState indicates an import session transition that the
	// state machine does not permit
	ErrSessionState = errors.New("invalid session state")

	// ErrCommitBlocked indicates a commit attempt on a session with
	// unresolved critical issues
	ErrCommitBlocked = errors.New("commit blocked by critical issues")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrReadOnly indicates an attempt to modify a read-only snapshot
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when a taxonomy entity is not found
type NotFoundError struct {
	Entity string
	Name   string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Name)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entity, name string) *NotFoundError {
	return &NotFoundError{Entity: entity, Name: name}
}

// ValidationError represents a malformed input that prevents processing.
// Row-level data findings are validate.Issue values, not errors.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// StateError represents an illegal import-session transition
type StateError struct {
	SessionID string
	From      string
	To        string
	Message   string
}

// Error implements the error interface
func (e *StateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("session %s: cannot move from %s to %s: %s", e.SessionID, e.From, e.To, e.Message)
	}
	return fmt.Sprintf("session %s: cannot move from %s to %s", e.SessionID, e.From, e.To)
}

// Is implements errors.Is support
func (e *StateError) Is(target error) bool {
	return target == ErrSessionState
}

// NewStateError creates a new StateError
func NewStateError(sessionID, from, to, message string) *StateError {
	return &StateError{SessionID: sessionID, From: from, To: to, Message: message}
}

// LockError represents a failed advisory-lock acquisition
type LockError struct {
	Name   string
	Holder string
	Err    error
}

// Error implements the error interface
func (e *LockError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("lock %q held by %s", e.Name, e.Holder)
	}
	return fmt.Sprintf("lock %q could not be acquired", e.Name)
}

// Unwrap implements errors.Unwrap
func (e *LockError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LockError) Is(target error) bool {
	return target == ErrLocked
}

// StoreError represents a store-connectivity or query failure
type StoreError struct {
	Store     string // "operational", "mirror"
	Operation string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s failed: %v", e.Store, e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError creates a new StoreError
func NewStoreError(store, operation string, err error) *StoreError {
	return &StoreError{Store: store, Operation: operation, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json", "xlsx", "csv"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// ResourceError represents an error during entity operations
type ResourceError struct {
	Operation string // "create", "update", "delete", "load", "swap"
	Resource  string // "snapshot", "category", "range", "campaign", "session"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: message, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsLocked checks if an error is an advisory-lock conflict
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsStoreUnavailable checks if an error indicates a store-connectivity failure
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Wrap helpers for common patterns

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	return NewParseError(format, file, message, err)
}

// WrapStore wraps an error as a StoreError
func WrapStore(store, operation string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(store, operation, err)
}
