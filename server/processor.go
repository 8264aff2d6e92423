// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log/slog"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/event"
)

// Processor turns raw JSON-RPC request bytes into handler calls. It owns
// the wire contract: envelope validation, method dispatch including the
// legacy aliases, capability gating against the agent card, and the
// mapping of every failure onto the protocol error table.
type Processor struct {
	handler RequestHandler
	card    *a2a.AgentCard
	logger  *slog.Logger
}

// NewProcessor creates a Processor dispatching to handler, gated by the
// capabilities declared in card.
func NewProcessor(handler RequestHandler, card *a2a.AgentCard, opts ...ProcessorOption) *Processor {
	p := &Processor{
		handler: handler,
		card:    card,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Card returns the agent card the processor serves.
func (p *Processor) Card() *a2a.AgentCard { return p.card }

// Result is the outcome of one request. Response is set for unary
// methods and for every error; Stream is set instead when a streaming
// method succeeds, with ID carrying the request id for event framing.
type Result struct {
	ID       jsontext.Value
	Response *a2a.Response
	Stream   *event.Subscription
}

// ProcessRaw handles one JSON-RPC request. It never returns an error:
// every failure is already a protocol error response. The request id is
// echoed verbatim, including null, and recovered on a best effort basis
// when the body does not parse.
func (p *Processor) ProcessRaw(ctx context.Context, raw []byte) *Result {
	var req a2a.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		id := recoverID(raw)
		return &Result{ID: id, Response: a2a.NewErrorResponse(id, a2a.NewJSONParseError())}
	}

	if envErr := req.ValidateEnvelope(); envErr != nil {
		return &Result{ID: req.ID, Response: a2a.NewErrorResponse(req.ID, envErr)}
	}

	p.logger.InfoContext(ctx, "dispatching request", "method", req.Method)

	switch canonicalMethod(req.Method) {
	case a2a.MethodMessageSend:
		return p.messageSend(ctx, &req)
	case a2a.MethodMessageStream:
		return p.messageStream(ctx, &req)
	case a2a.MethodTasksGet:
		return p.tasksGet(ctx, &req)
	case a2a.MethodTasksCancel:
		return p.tasksCancel(ctx, &req)
	case a2a.MethodTasksPushNotificationConfigSet:
		return p.pushConfigSet(ctx, &req)
	case a2a.MethodTasksPushNotificationConfigGet:
		return p.pushConfigGet(ctx, &req)
	case a2a.MethodTasksResubscribe:
		return p.resubscribe(ctx, &req)
	default:
		return p.fail(&req, a2a.NewMethodNotFoundError(req.Method))
	}
}

// canonicalMethod folds the legacy method names onto their replacements.
func canonicalMethod(method string) string {
	switch method {
	case a2a.MethodTasksSend:
		return a2a.MethodMessageSend
	case a2a.MethodTasksSendSubscribe:
		return a2a.MethodMessageStream
	}
	return method
}

func (p *Processor) messageSend(ctx context.Context, req *a2a.Request) *Result {
	params, perr := decodeParams[a2a.MessageSendParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}
	if perr := p.checkInputModes(params.Message); perr != nil {
		return p.fail(req, perr)
	}
	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil &&
		!p.card.Capabilities.PushNotifications {
		return p.fail(req, a2a.NewPushNotificationNotSupportedError())
	}

	t, err := p.handler.OnMessageSend(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return p.succeed(req, t)
}

func (p *Processor) messageStream(ctx context.Context, req *a2a.Request) *Result {
	if !p.card.Capabilities.Streaming {
		return p.fail(req, a2a.NewUnsupportedOperationError("streaming is not supported by this agent"))
	}

	params, perr := decodeParams[a2a.MessageSendParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}
	if perr := p.checkInputModes(params.Message); perr != nil {
		return p.fail(req, perr)
	}

	sub, err := p.handler.OnMessageStream(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return &Result{ID: normalizedID(req), Stream: sub}
}

func (p *Processor) tasksGet(ctx context.Context, req *a2a.Request) *Result {
	params, perr := decodeParams[a2a.TaskQueryParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}

	t, err := p.handler.OnGetTask(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return p.succeed(req, t)
}

func (p *Processor) tasksCancel(ctx context.Context, req *a2a.Request) *Result {
	params, perr := decodeParams[a2a.TaskIDParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}

	t, err := p.handler.OnCancelTask(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return p.succeed(req, t)
}

func (p *Processor) pushConfigSet(ctx context.Context, req *a2a.Request) *Result {
	if !p.card.Capabilities.PushNotifications {
		return p.fail(req, a2a.NewPushNotificationNotSupportedError())
	}

	params, perr := decodeParams[a2a.TaskPushNotificationConfig](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}

	config, err := p.handler.OnSetTaskPushNotificationConfig(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return p.succeed(req, config)
}

func (p *Processor) pushConfigGet(ctx context.Context, req *a2a.Request) *Result {
	if !p.card.Capabilities.PushNotifications {
		return p.fail(req, a2a.NewPushNotificationNotSupportedError())
	}

	params, perr := decodeParams[a2a.TaskIDParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}

	config, err := p.handler.OnGetTaskPushNotificationConfig(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return p.succeed(req, config)
}

func (p *Processor) resubscribe(ctx context.Context, req *a2a.Request) *Result {
	if !p.card.Capabilities.Streaming {
		return p.fail(req, a2a.NewUnsupportedOperationError("streaming is not supported by this agent"))
	}

	params, perr := decodeParams[a2a.TaskQueryParams](req.Params)
	if perr != nil {
		return p.fail(req, perr)
	}

	sub, err := p.handler.OnResubscribe(ctx, params)
	if err != nil {
		return p.fail(req, a2a.AsError(err))
	}
	return &Result{ID: normalizedID(req), Stream: sub}
}

// checkInputModes rejects file content whose MIME type the agent card
// does not accept.
func (p *Processor) checkInputModes(msg *a2a.Message) *a2a.Error {
	if msg == nil {
		return nil
	}
	for _, part := range msg.Parts {
		filePart, ok := part.(*a2a.FilePart)
		if !ok {
			continue
		}
		if mime := filePart.File.MIMEType; mime != "" && !p.card.AcceptsInputMode(mime) {
			return a2a.NewContentTypeNotSupportedError(mime)
		}
	}
	return nil
}

func (p *Processor) succeed(req *a2a.Request, result any) *Result {
	resp := a2a.NewSuccessResponse(req.ID, result)
	return &Result{ID: resp.ID, Response: resp}
}

func (p *Processor) fail(req *a2a.Request, err *a2a.Error) *Result {
	resp := a2a.NewErrorResponse(req.ID, err)
	return &Result{ID: resp.ID, Response: resp}
}

func normalizedID(req *a2a.Request) jsontext.Value {
	return a2a.NewSuccessResponse(req.ID, nil).ID
}

// decodeParams unmarshals and validates method params. Absent params are
// invalid for every A2A method.
func decodeParams[P any](raw jsontext.Value) (*P, *a2a.Error) {
	if len(raw) == 0 {
		return nil, a2a.NewInvalidParamsError("params are required")
	}
	var params P
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}
	if v, ok := any(&params).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, a2a.NewInvalidParamsError(err.Error())
		}
	}
	return &params, nil
}

// recoverID extracts the request id from a body that failed to parse as
// a request, so even a parse error response can echo it.
func recoverID(raw []byte) jsontext.Value {
	var probe struct {
		ID jsontext.Value `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	return probe.ID
}
