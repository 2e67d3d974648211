package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	engine "github.com/mutablelogic/go-agentstream/pkg/engine"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

const resumeTrace = `{"kind":"chain-start","origin_name":"LangGraph","data":{"input":{"resume":true}}}
{"kind":"stream-chunk","origin_name":"model","data":{"chunk":{"content":"Done"}}}
`

func replayDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.jsonl"), []byte(sampleTrace), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.resume.jsonl"), []byte(resumeTrace), 0o644))
	return dir
}

func Test_replay_001(t *testing.T) {
	assert := assert.New(t)
	r, err := engine.NewReplay(replayDir(t))
	require.NoError(t, err)

	source, err := r.Stream(context.Background(), schema.TurnRequest{ThreadID: "t1"})
	require.NoError(t, err)

	var count int
	for _, err := range source {
		assert.NoError(err)
		count++
	}
	assert.Equal(4, count)
}

func Test_replay_002(t *testing.T) {
	assert := assert.New(t)
	r, err := engine.NewReplay(replayDir(t))
	require.NoError(t, err)

	// Decisions select the resume trace
	source, err := r.Stream(context.Background(), schema.TurnRequest{
		ThreadID:  "t1",
		Decisions: []schema.Decision{schema.DecisionApprove},
	})
	require.NoError(t, err)

	var first schema.RawEvent
	for ev, err := range source {
		assert.NoError(err)
		first = ev
		break
	}
	if assert.IsType(&schema.ChainStart{}, first) {
		assert.True(first.(*schema.ChainStart).Resume)
	}
}

func Test_replay_003(t *testing.T) {
	assert := assert.New(t)
	r, err := engine.NewReplay(replayDir(t))
	require.NoError(t, err)

	_, err = r.Stream(context.Background(), schema.TurnRequest{ThreadID: "t2"})
	assert.ErrorIs(err, agentstream.ErrNotFound)

	for _, thread := range []string{"", "../t1", "a/b", ".hidden"} {
		_, err = r.Stream(context.Background(), schema.TurnRequest{ThreadID: thread})
		assert.ErrorIs(err, agentstream.ErrBadParameter, thread)
	}
}

func Test_replay_004(t *testing.T) {
	assert := assert.New(t)

	_, err := engine.NewReplay(filepath.Join(t.TempDir(), "missing"))
	assert.Error(err)

	_, err = engine.NewReplay(t.TempDir(), engine.WithDelay(-time.Second))
	assert.ErrorIs(err, agentstream.ErrBadParameter)
}

func Test_replay_005(t *testing.T) {
	assert := assert.New(t)
	r, err := engine.NewReplay(replayDir(t), engine.WithDelay(time.Hour))
	require.NoError(t, err)

	// Cancelling the context interrupts the delay
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source, err := r.Stream(ctx, schema.TurnRequest{ThreadID: "t1"})
	require.NoError(t, err)

	var events int
	var last error
	for ev, err := range source {
		if err != nil {
			last = err
			break
		}
		events++
		assert.NotNil(ev)
		cancel()
	}
	assert.Equal(1, events)
	assert.True(errors.Is(last, context.Canceled))
}
