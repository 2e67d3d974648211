package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	// Packages
	chat "github.com/mutablelogic/go-agentstream/pkg/chat"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	uicmd "github.com/mutablelogic/go-agentstream/pkg/ui/command"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	attribute "go.opentelemetry.io/otel/attribute"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ChatOptions are shared by the in-process chat frontends
type ChatOptions struct {
	Thread string `name:"thread" help:"Run every conversation on this engine thread" optional:""`
}

var _ uicmd.Driver = (*chat.Driver)(nil)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newDriver returns the in-process chat driver for the configured engine
func (opts ChatOptions) newDriver(ctx *Globals) (*chat.Driver, error) {
	engine, err := ctx.NewEngine()
	if err != nil {
		return nil, err
	}
	driverOpts := []chat.Opt{
		chat.WithAdapterOpts(ctx.AdapterOpts()...),
		chat.WithLogger(ctx.logger),
	}
	if opts.Thread != "" {
		thread := opts.Thread
		driverOpts = append(driverOpts, chat.WithThread(func(string) string { return thread }))
	}
	return chat.New(engine, driverOpts...)
}

// serve receives events from a chat frontend until it is closed, running
// turns and commands one at a time. Errors are reported to the user.
func serve(ctx *Globals, frontend ui.ChatUI, driver *chat.Driver, hooks uicmd.Hooks) error {
	handler := uicmd.New(driver, hooks)
	for {
		evt, err := frontend.Receive(ctx.ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			return err
		}
		if err := handle(ctx, handler, driver, evt); err != nil {
			ctx.logger.Warn("event failed", "conversation", evt.Context.ConversationID(), "type", evt.Type, "error", err)
			_ = evt.Context.SendText(ctx.ctx, fmt.Sprintf("Error: %v", err))
		}
	}
}

func handle(ctx *Globals, handler *uicmd.Handler, driver *chat.Driver, evt ui.Event) (err error) {
	parent, endSpan := otel.StartSpan(ctx.tracer, ctx.ctx, "Event",
		attribute.String("type", evt.Type.String()),
		attribute.String("conversation", evt.Context.ConversationID()),
	)
	defer func() { endSpan(err) }()

	switch evt.Type {
	case ui.EventText:
		return driver.Send(parent, evt.Context, evt.Text)
	case ui.EventCommand:
		return handler.Handle(parent, evt)
	case ui.EventApproval:
		if evt.Approval == nil {
			return nil
		}
		return driver.Respond(parent, evt.Context, *evt.Approval)
	default:
		return nil
	}
}
