// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// JSON-RPC and A2A error codes. The values are part of the wire contract.
const (
	// ErrorCodeJSONParse indicates a malformed JSON payload.
	ErrorCodeJSONParse = -32700

	// ErrorCodeInvalidRequest indicates an invalid JSON-RPC envelope.
	ErrorCodeInvalidRequest = -32600

	// ErrorCodeMethodNotFound indicates an unknown method.
	ErrorCodeMethodNotFound = -32601

	// ErrorCodeInvalidParams indicates invalid or missing parameters.
	ErrorCodeInvalidParams = -32602

	// ErrorCodeInternalError indicates an internal error.
	ErrorCodeInternalError = -32603

	// ErrorCodeTaskNotFound indicates the task ID could not be resolved.
	ErrorCodeTaskNotFound = -32001

	// ErrorCodeTaskNotCancelable indicates the task is already terminal.
	ErrorCodeTaskNotCancelable = -32002

	// ErrorCodePushNotificationNotSupported indicates the agent declares
	// no push notification capability.
	ErrorCodePushNotificationNotSupported = -32003

	// ErrorCodeUnsupportedOperation indicates the operation is not
	// supported by this agent.
	ErrorCodeUnsupportedOperation = -32004

	// ErrorCodeContentTypeNotSupported indicates an incompatible content
	// or MIME type.
	ErrorCodeContentTypeNotSupported = -32005

	// ErrorCodeInvalidAgentResponse indicates the agent logic produced an
	// invalid response.
	ErrorCodeInvalidAgentResponse = -32006
)

// Error is a structured protocol error carrying a wire error code. All
// core components raise *Error values (or wrap them); only the request
// processor boundary converts them to JSON-RPC error objects.
type Error struct {
	// Code is the wire error code.
	Code int `json:"code"`

	// Message is a short description of the error.
	Message string `json:"message"`

	// Data carries optional additional details.
	Data any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("a2a error %d: %s", e.Code, e.Message)
}

// Is reports code equality, making sentinel comparisons with errors.Is
// work across distinct instances.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewJSONParseError creates a -32700 error.
func NewJSONParseError() *Error {
	return &Error{Code: ErrorCodeJSONParse, Message: "Invalid JSON payload"}
}

// NewInvalidRequestError creates a -32600 error.
func NewInvalidRequestError() *Error {
	return &Error{Code: ErrorCodeInvalidRequest, Message: "Request payload validation error"}
}

// NewMethodNotFoundError creates a -32601 error for the given method.
func NewMethodNotFoundError(method string) *Error {
	return &Error{Code: ErrorCodeMethodNotFound, Message: "Method not found", Data: method}
}

// NewInvalidParamsError creates a -32602 error.
func NewInvalidParamsError(detail string) *Error {
	return &Error{Code: ErrorCodeInvalidParams, Message: "Invalid parameters", Data: detail}
}

// NewInternalError creates a -32603 error.
func NewInternalError() *Error {
	return &Error{Code: ErrorCodeInternalError, Message: "Internal error"}
}

// NewTaskNotFoundError creates a -32001 error for the given task ID.
func NewTaskNotFoundError(taskID string) *Error {
	return &Error{Code: ErrorCodeTaskNotFound, Message: "Task not found", Data: taskID}
}

// NewTaskNotCancelableError creates a -32002 error for the given task ID.
func NewTaskNotCancelableError(taskID string) *Error {
	return &Error{Code: ErrorCodeTaskNotCancelable, Message: "Task cannot be canceled", Data: taskID}
}

// NewPushNotificationNotSupportedError creates a -32003 error.
func NewPushNotificationNotSupportedError() *Error {
	return &Error{Code: ErrorCodePushNotificationNotSupported, Message: "Push Notification is not supported"}
}

// NewUnsupportedOperationError creates a -32004 error.
func NewUnsupportedOperationError(detail string) *Error {
	return &Error{Code: ErrorCodeUnsupportedOperation, Message: "This operation is not supported", Data: detail}
}

// NewContentTypeNotSupportedError creates a -32005 error.
func NewContentTypeNotSupportedError(mimeType string) *Error {
	return &Error{Code: ErrorCodeContentTypeNotSupported, Message: "Content type not supported", Data: mimeType}
}

// NewInvalidAgentResponseError creates a -32006 error.
func NewInvalidAgentResponseError(detail string) *Error {
	return &Error{Code: ErrorCodeInvalidAgentResponse, Message: "Invalid agent response", Data: detail}
}

// AsError converts an arbitrary error into a wire *Error. Structured
// errors pass through; anything else becomes an internal error so that
// infrastructure details never leak onto the wire.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError()
}
