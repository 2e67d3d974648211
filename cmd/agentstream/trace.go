package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Packages
	uuid "github.com/google/uuid"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	engine "github.com/mutablelogic/go-agentstream/pkg/engine"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	table "github.com/mutablelogic/go-agentstream/pkg/ui/table"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type TraceCommands struct {
	Replay  ReplayCommand  `cmd:"" name:"replay" help:"Translate recorded turns into a UI message stream." group:"TRACE"`
	Inspect InspectCommand `cmd:"" name:"inspect" help:"Show the events or frames of a recorded turn as a table." group:"TRACE"`
	Record  RecordCommand  `cmd:"" name:"record" help:"Record a turn from the engine as a trace." group:"TRACE"`
}

type ReplayCommand struct {
	Files  []string `arg:"" help:"Trace files (JSON lines of raw events)"`
	Events bool     `name:"events" help:"Write typed events as JSON lines rather than server-sent events"`
}

type InspectCommand struct {
	File   string `arg:"" type:"existingfile" help:"Trace file (JSON lines of raw events)"`
	Frames bool   `name:"frames" help:"Show the frames rather than the raw events"`
}

type RecordCommand struct {
	Thread string `name:"thread" help:"Thread id (default is a new id)" optional:""`
	Text   string `arg:"" help:"User message"`
	Out    string `name:"out" short:"o" type:"path" help:"Output file (default is standard output)" optional:""`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

// Run translates each file with its own adapter. Files are translated
// concurrently and written in the order given.
func (cmd *ReplayCommand) Run(ctx *Globals) error {
	results := make([]bytes.Buffer, len(cmd.Files))
	group, parent := errgroup.WithContext(ctx.ctx)
	for i, path := range cmd.Files {
		group.Go(func() error {
			a, err := adapter.New(ctx.AdapterOpts()...)
			if err != nil {
				return err
			}
			source := engine.OpenTrace(path)
			if !cmd.Events {
				return a.Wire(parent, &results[i], source)
			}
			enc := json.NewEncoder(&results[i])
			for event := range a.Events(parent, source) {
				if err := enc.Encode(event); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	for i, path := range cmd.Files {
		if len(cmd.Files) > 1 {
			fmt.Fprintf(os.Stdout, ": %s\n\n", filepath.Base(path))
		}
		if _, err := results[i].WriteTo(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *InspectCommand) Run(ctx *Globals) error {
	source := engine.OpenTrace(cmd.File)
	if !cmd.Frames {
		var events table.RawEvents
		for event, err := range source {
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		fmt.Println(table.Render(events))
		return nil
	}

	a, err := adapter.New(ctx.AdapterOpts()...)
	if err != nil {
		return err
	}
	var frames table.Frames
	for frame := range a.Frames(ctx.ctx, source) {
		frames = append(frames, frame)
	}
	fmt.Println(table.Render(frames))
	return nil
}

func (cmd *RecordCommand) Run(ctx *Globals) error {
	e, err := ctx.NewEngine()
	if err != nil {
		return err
	}
	if cmd.Thread == "" {
		cmd.Thread = uuid.NewString()
	}
	source, err := e.Stream(ctx.ctx, schema.TurnRequest{
		ThreadID: cmd.Thread,
		Messages: []schema.UIMessage{{
			ID:    uuid.NewString(),
			Role:  schema.RoleUser,
			Parts: []schema.UIPart{{Type: schema.PartTypeText, Text: cmd.Text}},
		}},
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return engine.WriteTrace(w, source)
}
