// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only accepted value of the "jsonrpc" field.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	// MethodMessageSend submits a message to the agent.
	MethodMessageSend = "message/send"

	// MethodMessageStream submits a message and subscribes to updates.
	MethodMessageStream = "message/stream"

	// MethodTasksGet retrieves a task.
	MethodTasksGet = "tasks/get"

	// MethodTasksCancel cancels a task.
	MethodTasksCancel = "tasks/cancel"

	// MethodTasksPushNotificationConfigSet sets the push notification
	// configuration of a task.
	MethodTasksPushNotificationConfigSet = "tasks/pushNotificationConfig/set"

	// MethodTasksPushNotificationConfigGet retrieves the push
	// notification configuration of a task.
	MethodTasksPushNotificationConfigGet = "tasks/pushNotificationConfig/get"

	// MethodTasksResubscribe reattaches to a task's event stream.
	MethodTasksResubscribe = "tasks/resubscribe"

	// MethodTasksSend is the legacy alias of [MethodMessageSend].
	MethodTasksSend = "tasks/send"

	// MethodTasksSendSubscribe is the legacy alias of
	// [MethodMessageStream].
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
)

// Request is a JSON-RPC 2.0 request envelope. ID and Params are kept raw
// so the ID can be echoed verbatim and the params decoded per method.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitempty"`
}

// ValidateEnvelope checks the JSON-RPC envelope shape: the version literal
// and the ID type (string, number, or null per the association rules).
func (r *Request) ValidateEnvelope() *Error {
	if r.JSONRPC != JSONRPCVersion {
		return NewInvalidRequestError()
	}
	if !validRequestID(r.ID) {
		return NewInvalidRequestError()
	}
	if r.Method == "" {
		return NewInvalidRequestError()
	}
	return nil
}

// validRequestID reports whether raw is an acceptable JSON-RPC id: absent,
// null, a string, or a number.
func validRequestID(raw jsontext.Value) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	switch c := trimmed[0]; {
	case c == '"':
		return true
	case c == '-' || (c >= '0' && c <= '9'):
		return true
	}
	return false
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result and
// Error is set; ID always echoes the request id, null when it could not be
// recovered.
type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id"`
	Result  any            `json:"result,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response echoing the given raw id.
func NewSuccessResponse(id jsontext.Value, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Result:  result,
	}
}

// NewErrorResponse creates an error response echoing the given raw id.
func NewErrorResponse(id jsontext.Value, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Error:   err,
	}
}

func normalizeID(id jsontext.Value) jsontext.Value {
	if len(bytes.TrimSpace(id)) == 0 {
		return jsontext.Value("null")
	}
	return id
}
