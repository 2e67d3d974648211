package main

import (
	"fmt"

	// Packages
	version "github.com/mutablelogic/go-agentstream/pkg/version"
)

type VersionCommands struct {
	Version VersionCommand `cmd:"" name:"version" help:"Print version information"`
}

type VersionCommand struct{}

func (cmd *VersionCommand) Run(ctx *Globals) error {
	fmt.Println(version.Get(ctx.execName))
	return nil
}
