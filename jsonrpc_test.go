// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

func TestRequestValidateEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid string id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`"1"`), Method: "tasks/get"}},
		{name: "valid number id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`42`), Method: "tasks/get"}},
		{name: "valid null id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`null`), Method: "tasks/get"}},
		{name: "valid absent id", req: Request{JSONRPC: "2.0", Method: "tasks/get"}},
		{name: "wrong version", req: Request{JSONRPC: "1.0", ID: jsontext.Value(`1`), Method: "tasks/get"}, wantErr: true},
		{name: "missing version", req: Request{ID: jsontext.Value(`1`), Method: "tasks/get"}, wantErr: true},
		{name: "object id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`{}`), Method: "tasks/get"}, wantErr: true},
		{name: "array id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`[1]`), Method: "tasks/get"}, wantErr: true},
		{name: "boolean id", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`true`), Method: "tasks/get"}, wantErr: true},
		{name: "missing method", req: Request{JSONRPC: "2.0", ID: jsontext.Value(`1`)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.ValidateEnvelope()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEnvelope() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Code != ErrorCodeInvalidRequest {
				t.Errorf("Expected code %d, got %d", ErrorCodeInvalidRequest, err.Code)
			}
		})
	}
}

func TestResponseEchoesID(t *testing.T) {
	tests := []struct {
		name string
		id   jsontext.Value
		want string
	}{
		{name: "string id", id: jsontext.Value(`"req-1"`), want: `"id":"req-1"`},
		{name: "number id", id: jsontext.Value(`7`), want: `"id":7`},
		{name: "null id", id: jsontext.Value(`null`), want: `"id":null`},
		{name: "absent id", id: nil, want: `"id":null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponse(tt.id, map[string]any{"ok": true})
			data, err := json.Marshal(resp)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Expected %s in %s", tt.want, data)
			}
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(jsontext.Value(`1`), NewTaskNotFoundError("task-1"))

	if resp.JSONRPC != JSONRPCVersion {
		t.Errorf("Expected version %s, got %s", JSONRPCVersion, resp.JSONRPC)
	}
	if resp.Error == nil || resp.Error.Code != ErrorCodeTaskNotFound {
		t.Errorf("Expected a task not found error, got %v", resp.Error)
	}
	if resp.Result != nil {
		t.Error("Expected no result on an error response")
	}
}
