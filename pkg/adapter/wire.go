package adapter

import (
	"context"
	"io"
	"iter"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	sse "github.com/mutablelogic/go-agentstream/pkg/sse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Wire writes the frames for a turn to w as server-sent events, flushing
// after each frame. It returns when the stream ends, or with the first write
// error, which also stops the source.
func (a *Adapter) Wire(ctx context.Context, w io.Writer, source iter.Seq2[schema.RawEvent, error]) error {
	writer := sse.NewWriter(w)
	for frame := range a.Frames(ctx, source) {
		if err := writer.Write(frame); err != nil {
			return err
		}
	}
	return nil
}
