package main

import (
	// Packages
	telegram "github.com/mutablelogic/go-agentstream/pkg/ui/telegram"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type TelegramCommands struct {
	Telegram TelegramCommand `cmd:"" name:"telegram" help:"Run as a Telegram bot." group:"SERVER"`
	TUI      TUICommand      `cmd:"" name:"tui" help:"Chat in the terminal." group:"CLIENT"`
}

type TelegramCommand struct {
	ChatOptions `embed:""`
	Token       string `name:"token" env:"TELEGRAM_TOKEN" help:"Telegram Bot API token" required:""`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *TelegramCommand) Run(ctx *Globals) error {
	driver, err := cmd.newDriver(ctx)
	if err != nil {
		return err
	}

	// Create Telegram bot UI
	bot, err := telegram.New(cmd.Token)
	if err != nil {
		return err
	}
	defer bot.Close()

	ctx.logger.Info("telegram bot started", "name", ctx.execName)
	return serve(ctx, bot, driver, nil)
}
