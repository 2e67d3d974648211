package main

import (
	// Packages
	bubbletea "github.com/mutablelogic/go-agentstream/pkg/ui/bubbletea"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type TUICommand struct {
	ChatOptions `embed:""`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *TUICommand) Run(ctx *Globals) error {
	// The terminal belongs to the UI, so logging is quietened
	ctx.logger = discardLogger()

	driver, err := cmd.newDriver(ctx)
	if err != nil {
		return err
	}

	terminal, err := bubbletea.New()
	if err != nil {
		return err
	}
	defer terminal.Close()

	return serve(ctx, terminal, driver, terminal)
}
