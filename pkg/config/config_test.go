package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	config "github.com/mutablelogic/go-agentstream/pkg/config"
	engine "github.com/mutablelogic/go-agentstream/pkg/engine"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  addr: localhost:8080
  prefix: /api
  origin: "*"
engine:
  replay: %s
  delay: 50ms
model_node: agent
graph_node: graph
tools:
  send_email:
    title: Send an email
    icon: mail
`

func Test_config_001(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(os.WriteFile(path, []byte(strings.Replace(sampleConfig, "%s", dir, 1)), 0o600))

	c, err := config.Load(path)
	require.NoError(err)
	assert.Equal("localhost:8080", c.Server.Addr)
	assert.Equal("/api", c.Server.Prefix)
	assert.Equal("*", c.Server.Origin)
	assert.Equal(dir, c.Engine.Replay)
	assert.Equal(50*time.Millisecond, c.Engine.Delay)
	assert.Equal("agent", c.ModelNode)
	assert.Equal("graph", c.GraphNode)
	assert.Len(c.AdapterOpts(), 3)

	e, err := c.NewEngine()
	require.NoError(err)
	assert.IsType(&engine.Replay{}, e)
}

func Test_config_002(t *testing.T) {
	assert := assert.New(t)

	c, err := config.Read(strings.NewReader("tools:\n  send_email:\n    title: Send an email\n"))
	if !assert.NoError(err) {
		return
	}
	fn := c.ToolMetadata()
	if assert.NotNil(fn) {
		meta := fn("send_email")
		assert.Equal(map[string]string{"title": "Send an email"}, meta)

		// Lookups return a copy
		meta["title"] = "changed"
		assert.Equal("Send an email", fn("send_email")["title"])
		assert.Nil(fn("unknown"))
	}

	// Without an engine there is nothing to run
	_, err = c.NewEngine()
	assert.ErrorIs(err, agentstream.ErrBadParameter)
}

func Test_config_003(t *testing.T) {
	assert := assert.New(t)

	for _, doc := range []string{
		"engine:\n  replay: a\n  remote: http://localhost/\n",
		"engine:\n  remote: http://localhost/\n  delay: 1s\n",
		"engine:\n  replay: a\n  delay: -1s\n",
		"unknown: true\n",
	} {
		_, err := config.Read(strings.NewReader(doc))
		assert.ErrorIs(err, agentstream.ErrBadParameter, doc)
	}

	// An empty document is a valid configuration
	c, err := config.Read(strings.NewReader(""))
	if assert.NoError(err) {
		assert.Nil(c.ToolMetadata())
		assert.Empty(c.AdapterOpts())
	}
}

func Test_config_004(t *testing.T) {
	assert := assert.New(t)

	c, err := config.Read(strings.NewReader("engine:\n  remote: http://localhost:8080/api\n"))
	if !assert.NoError(err) {
		return
	}
	e, err := c.NewEngine()
	if assert.NoError(err) {
		assert.IsType(&engine.Remote{}, e)
	}

	// Metadata from the config is attached to tool input frames
	c, err = config.Read(strings.NewReader("tools:\n  get_weather:\n    title: Weather\n"))
	if !assert.NoError(err) {
		return
	}
	a, err := adapter.New(c.AdapterOpts()...)
	if !assert.NoError(err) {
		return
	}
	source := func(yield func(schema.RawEvent, error) bool) {
		yield(&schema.TurnEnd{OriginName: "model", Output: &schema.AIMessage{
			ToolCalls: []schema.ToolCall{{ID: "c1", Name: "get_weather", Args: map[string]any{"city": "Paris"}}},
		}}, nil)
	}
	var found bool
	for frame := range a.Frames(t.Context(), source) {
		if f, ok := frame.(schema.ToolInputAvailableFrame); ok {
			assert.Equal(map[string]string{"title": "Weather"}, f.Metadata)
			found = true
		}
	}
	assert.True(found)
}
