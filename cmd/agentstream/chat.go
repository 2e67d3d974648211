package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	// Packages
	lipgloss "github.com/charmbracelet/lipgloss"
	uuid "github.com/google/uuid"
	httpclient "github.com/mutablelogic/go-agentstream/pkg/httpclient"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ClientCommands struct {
	Chat ChatCommand `cmd:"" name:"chat" help:"Chat with a server, approving tool calls on the terminal." group:"CLIENT"`
}

type ChatCommand struct {
	URL     string `name:"url" help:"Server endpoint (default http://<http.addr><http.prefix>)" optional:""`
	Thread  string `name:"thread" help:"Conversation id (default is a new id)" optional:""`
	Approve bool   `name:"approve" help:"Approve every tool call without asking"`
	Text    string `arg:"" optional:"" help:"Message to send. Without one, messages are read from standard input."`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	toolStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	askStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ChatCommand) Run(ctx *Globals) error {
	url := cmd.URL
	if url == "" {
		url = "http://" + ctx.HTTP.Addr + ctx.HTTP.Prefix
	}
	client, err := httpclient.New(url, ctx.ClientOpts()...)
	if err != nil {
		return err
	}
	if cmd.Thread == "" {
		cmd.Thread = uuid.NewString()
	}

	session := &chatSession{
		ChatCommand: cmd,
		client:      client,
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}

	// A single message
	if cmd.Text != "" {
		return session.send(ctx.ctx, cmd.Text)
	}

	// Read messages until end of input
	for {
		text, err := session.prompt("> ")
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if err := session.send(ctx.ctx, text); err != nil {
			fmt.Fprintln(session.out, errorStyle.Render("Error: "+err.Error()))
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE TYPES

type chatSession struct {
	*ChatCommand
	client      *httpclient.Client
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	messages    []schema.UIMessage
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// send posts a user message, then answers approval requests and resumes the
// turn until it completes
func (s *chatSession) send(ctx context.Context, text string) error {
	s.messages = append(s.messages, schema.UIMessage{
		ID:    uuid.NewString(),
		Role:  schema.RoleUser,
		Parts: []schema.UIPart{{Type: schema.PartTypeText, Text: text}},
	})

	var message *schema.UIMessage
	for {
		req := schema.ChatRequest{ID: s.Thread, Messages: s.messages}
		opts := []httpclient.ChatOpt{httpclient.WithFrameFn(s.frame)}
		if message != nil {
			req.MessageID = message.ID
			opts = append(opts, httpclient.WithMessage(message))
		}
		result, err := s.client.Chat(ctx, req, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out)

		// Keep the assistant message in the history
		if message == nil {
			s.messages = append(s.messages, *result)
			message = &s.messages[len(s.messages)-1]
		} else {
			message.Settle()
		}

		// Ask for approvals, and resume
		pending := message.PendingApprovals()
		if len(pending) == 0 {
			return nil
		}
		for _, part := range pending {
			approved, reason, err := s.ask(part)
			if err != nil {
				return err
			}
			message.Respond(part.ToolCallID, approved, reason)
		}
	}
}

// frame prints the stream as it arrives
func (s *chatSession) frame(frame schema.Frame) error {
	switch f := frame.(type) {
	case schema.TextDeltaFrame:
		fmt.Fprint(s.out, f.Delta)
	case schema.ToolInputAvailableFrame:
		fmt.Fprintln(s.out, toolStyle.Render(ui.ToolTitle(f.ToolName, f.Metadata)+" "+ui.Inline(f.Input)))
	case schema.ToolOutputAvailableFrame:
		fmt.Fprintln(s.out, toolStyle.Render("✓ "+ui.Inline(f.Output)))
	case schema.ToolOutputErrorFrame:
		fmt.Fprintln(s.out, toolStyle.Render("✗ "+f.ErrorText))
	case schema.ErrorFrame:
		fmt.Fprintln(s.out, errorStyle.Render(f.ErrorText))
	}
	return nil
}

// ask returns the user's answer to an approval request. The answer is
// "y" or "yes" to approve; anything else rejects, with the rest of the line
// after "n" or "no" as the reason.
func (s *chatSession) ask(part schema.UIPart) (bool, string, error) {
	question := fmt.Sprintf("Run %s %s? [y/N] ", ui.ToolTitle(part.Name(), nil), ui.Inline(part.Input))
	if s.Approve {
		fmt.Fprintln(s.out, askStyle.Render(question)+"y")
		return true, "", nil
	}
	answer, err := s.prompt(askStyle.Render(question))
	if err != nil && err != io.EOF {
		return false, "", err
	}
	word, reason, _ := strings.Cut(answer, " ")
	switch strings.ToLower(word) {
	case "y", "yes":
		return true, "", nil
	case "n", "no":
		return false, strings.TrimSpace(reason), nil
	default:
		return false, strings.TrimSpace(answer), nil
	}
}

// prompt reads a line of input, showing the prompt on a terminal
func (s *chatSession) prompt(prompt string) (string, error) {
	if s.interactive {
		fmt.Fprint(s.out, prompt)
	}
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
