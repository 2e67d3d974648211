// Package config loads the YAML configuration of an agentstream server:
// where to listen, which engine runs the turns, and how tool calls are
// presented to the user interface.
package config

import (
	"errors"
	"io"
	"maps"
	"os"
	"strings"
	"time"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	engine "github.com/mutablelogic/go-agentstream/pkg/engine"
	router "github.com/mutablelogic/go-agentstream/pkg/router"
	client "github.com/mutablelogic/go-client"
	types "github.com/mutablelogic/go-server/pkg/types"
	yaml "gopkg.in/yaml.v3"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Config struct {
	Server    Server                       `yaml:"server" json:"server"`
	Engine    Engine                       `yaml:"engine" json:"engine"`
	ModelNode string                       `yaml:"model_node,omitempty" json:"model_node,omitempty"`
	GraphNode string                       `yaml:"graph_node,omitempty" json:"graph_node,omitempty"`
	Tools     map[string]map[string]string `yaml:"tools,omitempty" json:"tools,omitempty"`
}

type Server struct {
	Addr   string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Origin string `yaml:"origin,omitempty" json:"origin,omitempty"`
}

// Engine selects the engine which runs the turns: a directory of recorded
// traces, or a remote engine endpoint.
type Engine struct {
	Replay string        `yaml:"replay,omitempty" json:"replay,omitempty"`
	Delay  time.Duration `yaml:"delay,omitempty" json:"delay,omitempty"`
	Remote string        `yaml:"remote,omitempty" json:"remote,omitempty"`
	Path   []string      `yaml:"path,omitempty" json:"path,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Load reads the configuration from a YAML file.
func Load(path string) (*Config, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r)
}

// Read decodes and validates the configuration. Unknown keys are an error.
func Read(r io.Reader) (*Config, error) {
	config := new(Config)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, agentstream.ErrBadParameter.With(err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c Config) String() string {
	return types.Stringify(c)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate returns an error if the configuration is inconsistent.
func (c *Config) Validate() error {
	if c.Engine.Replay != "" && c.Engine.Remote != "" {
		return agentstream.ErrBadParameter.With("engine: replay and remote are exclusive")
	}
	if c.Engine.Delay < 0 {
		return agentstream.ErrBadParameter.With("engine: delay must not be negative")
	}
	if c.Engine.Delay != 0 && c.Engine.Replay == "" {
		return agentstream.ErrBadParameter.With("engine: delay applies to replay only")
	}
	if c.ModelNode != "" && strings.TrimSpace(c.ModelNode) == "" {
		return agentstream.ErrBadParameter.With("model_node is blank")
	}
	return nil
}

// NewEngine returns the configured engine. The client options apply to a
// remote engine.
func (c *Config) NewEngine(opts ...client.ClientOpt) (agentstream.Engine, error) {
	switch {
	case c.Engine.Replay != "":
		return engine.NewReplay(c.Engine.Replay, engine.WithDelay(c.Engine.Delay))
	case c.Engine.Remote != "":
		return engine.NewRemote(c.Engine.Remote, c.Engine.Path, opts...)
	default:
		return nil, agentstream.ErrBadParameter.With("engine: replay or remote is required")
	}
}

// ToolMetadata returns the UI metadata lookup for the configured tools, or
// nil when no tool has metadata. The lookup returns a copy.
func (c *Config) ToolMetadata() router.MetadataFunc {
	if len(c.Tools) == 0 {
		return nil
	}
	return func(tool string) map[string]string {
		if meta := c.Tools[tool]; len(meta) > 0 {
			return maps.Clone(meta)
		}
		return nil
	}
}

// AdapterOpts returns the adapter options for every turn.
func (c *Config) AdapterOpts() []adapter.Opt {
	var opts []adapter.Opt
	if c.ModelNode != "" {
		opts = append(opts, adapter.WithModelNode(c.ModelNode))
	}
	if c.GraphNode != "" {
		opts = append(opts, adapter.WithGraphNode(c.GraphNode))
	}
	if fn := c.ToolMetadata(); fn != nil {
		opts = append(opts, adapter.WithToolMetadata(fn))
	}
	return opts
}
