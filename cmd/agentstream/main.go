package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	config "github.com/mutablelogic/go-agentstream/pkg/config"
	client "github.com/mutablelogic/go-client"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	resource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	trace "go.opentelemetry.io/otel/trace"
	term "golang.org/x/term"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debugging
	Debug   bool `name:"debug" help:"Enable debug output"`
	Verbose bool `name:"verbose" help:"Enable verbose output"`

	// Configuration file
	Config string `name:"config" env:"AGENTSTREAM_CONFIG" type:"path" help:"YAML configuration file" optional:""`

	// HTTP server and client options
	HTTP struct {
		Addr    string        `name:"addr" env:"AGENTSTREAM_ADDR" help:"Server listen address, or client endpoint host (default localhost:8080)" optional:""`
		Prefix  string        `name:"prefix" help:"Path prefix for the endpoints (default /api)" optional:""`
		Origin  string        `name:"origin" help:"Cross-origin protection (CSRF) origin. Empty string for same-origin only, '*' to allow all origins." optional:""`
		Timeout time.Duration `name:"timeout" default:"0" help:"Client timeout for a remote engine, or zero for none"`
	} `embed:"" prefix:"http."`

	// Engine options, which override the configuration file
	Engine struct {
		Replay string        `name:"replay" type:"path" help:"Directory of recorded turns (<thread>.jsonl)" optional:""`
		Remote string        `name:"remote" help:"Endpoint of a remote engine" optional:""`
		Delay  time.Duration `name:"delay" help:"Delay between replayed events" optional:""`
	} `embed:"" prefix:"engine."`

	// Tracing
	OTel struct {
		Endpoint string `name:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" help:"OTLP/HTTP endpoint for traces" optional:""`
	} `embed:"" prefix:"otel."`

	// Context
	ctx      context.Context
	tracer   trace.Tracer
	logger   *slog.Logger
	execName string
	config   *config.Config
}

type CLI struct {
	Globals
	ServerCommands
	TelegramCommands
	ClientCommands
	TraceCommands
	VersionCommands
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultAddr   = "localhost:8080"
	defaultPrefix = "/api"
)

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	// Create a cli parser
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("AI agent event stream adapter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{},
	)

	// Create a context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx
	cli.Globals.execName = execName()

	// Export traces when there is an endpoint
	var provider *sdktrace.TracerProvider
	if cli.OTel.Endpoint != "" {
		p, err := newTracerProvider(ctx, cli.OTel.Endpoint, cli.Globals.execName)
		cmd.FatalIfErrorf(err)
		otel.SetTracerProvider(p)
		provider = p
	}
	cli.Globals.tracer = otel.Tracer(cli.Globals.execName)

	// Create a logger
	var level slog.LevelVar
	if cli.Verbose {
		level.Set(logger.LevelTrace)
	} else if cli.Debug {
		level.Set(logger.LevelDebug)
	}
	cli.Globals.logger = newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), &level)

	// Read the configuration file. Flags take precedence over the file.
	if cli.Config != "" {
		c, err := config.Load(cli.Config)
		cmd.FatalIfErrorf(err)
		cli.Globals.config = c
	} else {
		cli.Globals.config = new(config.Config)
	}
	cli.HTTP.Addr = firstOf(cli.HTTP.Addr, cli.Globals.config.Server.Addr, defaultAddr)
	cli.HTTP.Prefix = firstOf(cli.HTTP.Prefix, cli.Globals.config.Server.Prefix, defaultPrefix)
	cli.HTTP.Origin = firstOf(cli.HTTP.Origin, cli.Globals.config.Server.Origin)

	// Run the command, then flush any spans
	err := cmd.Run(&cli.Globals)
	if provider != nil {
		provider.Shutdown(context.Background())
	}
	cmd.FatalIfErrorf(err)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ClientOpts returns the options for outgoing HTTP requests.
func (g *Globals) ClientOpts() []client.ClientOpt {
	opts := []client.ClientOpt{}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, g.Verbose))
	}
	if g.tracer != nil {
		opts = append(opts, client.OptTracer(g.tracer))
	}
	if g.HTTP.Timeout != 0 {
		opts = append(opts, client.OptTimeout(g.HTTP.Timeout))
	}
	return opts
}

// NewEngine returns the engine from the configuration file, with the engine
// flags taking precedence.
func (g *Globals) NewEngine() (agentstream.Engine, error) {
	c := *g.config
	switch {
	case g.Engine.Replay != "":
		c.Engine.Replay, c.Engine.Remote, c.Engine.Path = g.Engine.Replay, "", nil
	case g.Engine.Remote != "":
		c.Engine.Remote, c.Engine.Replay, c.Engine.Delay = g.Engine.Remote, "", 0
	}
	if g.Engine.Delay != 0 {
		c.Engine.Delay = g.Engine.Delay
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.NewEngine(g.ClientOpts()...)
}

// AdapterOpts returns the options for the adapter of every turn.
func (g *Globals) AdapterOpts() []adapter.Opt {
	return append(g.config.AdapterOpts(), adapter.WithLogger(g.logger), adapter.WithTracer(g.tracer))
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newLogger writes coloured lines to a terminal, and JSON otherwise
func newLogger(w io.Writer, terminal bool, level *slog.LevelVar) *slog.Logger {
	if terminal {
		return slog.New(logger.NewTermHandler(w, level))
	}
	return slog.New(logger.NewLevelHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logger.LevelTrace}), level))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracerProvider(ctx context.Context, endpoint, name string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	), nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	} else {
		return filepath.Base(name)
	}
}
