// Package sse encodes and decodes UI message stream frames as server-sent
// events, one "data:" line per frame.
package sse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"net/http"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Writer writes frames as events, flushing after each frame when the
// underlying writer supports it.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ContentType = "text/event-stream"

	// Header and version which mark a response as a UI message stream
	StreamHeader  = "x-vercel-ai-ui-message-stream"
	StreamVersion = "v1"

	dataPrefix = "data:"
	maxLine    = 4 * 1024 * 1024
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewWriter returns a writer for frames.
func NewWriter(w io.Writer) *Writer {
	self := &Writer{w: w}
	if flusher, ok := w.(http.Flusher); ok {
		self.flusher = flusher
	}
	return self
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SetHeaders sets the response headers for a UI message stream.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set(StreamHeader, StreamVersion)
}

// Encode returns the event for a frame: "data: <json>\n\n", or
// "data: [DONE]\n\n" for the terminal sentinel.
func Encode(frame schema.Frame) ([]byte, error) {
	data, err := schema.MarshalFrame(frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString(dataPrefix + " ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Write writes one frame and flushes.
func (w *Writer) Write(frame schema.Frame) error {
	data, err := Encode(frame)
	if err != nil {
		return err
	}
	return w.write(data)
}

// WriteData writes an arbitrary payload as one "data:" event and flushes.
// The payload must not contain a newline.
func (w *Writer) WriteData(data []byte) error {
	if bytes.ContainsAny(data, "\r\n") {
		return fmt.Errorf("sse: payload contains a newline")
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString(dataPrefix + " ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return w.write(buf.Bytes())
}

// Read returns the frames of an event stream. Lines other than "data:"
// lines are ignored. Iteration ends after the terminal sentinel, at the end
// of the reader, or on the first error.
func Read(r io.Reader) iter.Seq2[schema.Frame, error] {
	return func(yield func(schema.Frame, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
		for scanner.Scan() {
			line := scanner.Bytes()
			if !bytes.HasPrefix(line, []byte(dataPrefix)) {
				continue
			}
			frame, err := Decode(line[len(dataPrefix):])
			if !yield(frame, err) || err != nil {
				return
			}
			if frame.Type() == schema.FrameDone {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Decode returns the frame for the payload of a "data:" line.
func Decode(data []byte) (schema.Frame, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("sse: empty data")
	}
	return schema.DecodeFrame(data)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (w *Writer) write(data []byte) error {
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
