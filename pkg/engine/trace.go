package engine

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"os"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	maxTraceLine = 4 * 1024 * 1024
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ReadTrace returns the raw events of a trace, one JSON envelope per line.
// Blank lines and lines starting with "#" are skipped. Iteration ends at the
// first error.
func ReadTrace(r io.Reader) iter.Seq2[schema.RawEvent, error] {
	return func(yield func(schema.RawEvent, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxTraceLine)
		var line int
		for scanner.Scan() {
			line++
			data := bytes.TrimSpace(scanner.Bytes())
			if len(data) == 0 || data[0] == '#' {
				continue
			}
			ev, err := schema.DecodeRawEvent(data)
			if err != nil {
				yield(nil, agentstream.ErrBadParameter.Withf("line %d: %v", line, err))
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// OpenTrace returns the raw events of a trace file. The file is opened when
// iteration starts and closed when it ends.
func OpenTrace(path string) iter.Seq2[schema.RawEvent, error] {
	return func(yield func(schema.RawEvent, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()
		for ev, err := range ReadTrace(f) {
			if !yield(ev, err) {
				return
			}
		}
	}
}

// WriteTrace writes raw events to w as a trace, stopping at the first error
// from the source or the writer.
func WriteTrace(w io.Writer, source iter.Seq2[schema.RawEvent, error]) error {
	for ev, err := range source {
		if err != nil {
			return err
		}
		data, err := schema.EncodeRawEvent(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}
