// Package tracker follows tool calls through a streamed turn: which calls
// are in flight, which were decided in an earlier turn, and which call a
// name and arguments pair refers to when the engine changes identifiers.
package tracker

import (
	"io"
	"log/slog"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Call is the state of one in-flight tool call.
type Call struct {
	ID              string
	Name            string
	Args            strings.Builder
	AlreadyApproved bool
	Index           int
}

// Tracker owns the active calls and the signature to id correlation index
// for one stream. It is not safe for concurrent use.
type Tracker struct {
	log         *slog.Logger
	preApproved map[string]struct{}
	active      map[string]*Call
	order       []string // active ids in start order
	signatures  map[string]string
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a tracker. The pre-approved set is fixed once the tracker is
// created.
func New(opts ...Opt) (*Tracker, error) {
	t := &Tracker{
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		preApproved: make(map[string]struct{}),
		active:      make(map[string]*Call),
		signatures:  make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// StartCall inserts the active call for id, replacing any existing call with
// the same id.
func (t *Tracker) StartCall(id, name string, opts ...CallOpt) *Call {
	call := &Call{ID: id, Name: name}
	for _, opt := range opts {
		opt(call)
	}
	if _, exists := t.active[id]; !exists {
		t.order = append(t.order, id)
	}
	t.active[id] = call
	t.log.Debug("tool call started", "id", id, "name", name, "approved", call.AlreadyApproved)
	return call
}

// FinishCall removes and returns the active call for id. It returns false if
// there is no such call.
func (t *Tracker) FinishCall(id string) (*Call, bool) {
	call, exists := t.active[id]
	if !exists {
		return nil, false
	}
	delete(t.active, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.log.Debug("tool call finished", "id", id, "name", call.Name)
	return call, true
}

// Get returns the active call for id.
func (t *Tracker) Get(id string) (*Call, bool) {
	call, exists := t.active[id]
	return call, exists
}

// Len returns the number of active calls.
func (t *Tracker) Len() int {
	return len(t.active)
}

// IsPreApproved returns true if the decision for id was recorded in an
// earlier turn.
func (t *Tracker) IsPreApproved(id string) bool {
	_, exists := t.preApproved[id]
	return exists
}

// RegisterSignature maps a signature to a call id. The last write wins.
func (t *Tracker) RegisterSignature(sig, id string) {
	t.signatures[sig] = id
}

// ResolveIDForSignature returns the call id registered for a signature. On a
// miss, a new id is returned and the miss is logged. The new id is not
// registered.
func (t *Tracker) ResolveIDForSignature(sig string) string {
	if id, exists := t.signatures[sig]; exists && id != "" {
		return id
	}
	id := uuid.NewString()
	t.log.Warn("tool call correlation miss", "signature", sig, "id", id)
	return id
}

// ShouldSkipEmission returns true if the signature has already been
// registered, or the id is already active, so the call has already been
// shown to the client.
func (t *Tracker) ShouldSkipEmission(id, sig string) bool {
	if _, exists := t.signatures[sig]; exists {
		t.log.Debug("skipping duplicate tool call", "signature", sig)
		return true
	}
	if _, exists := t.active[id]; exists {
		t.log.Debug("skipping duplicate tool call", "id", id)
		return true
	}
	return false
}

// FindActiveByIndex returns the earliest started active call with the given
// index.
func (t *Tracker) FindActiveByIndex(i int) (*Call, bool) {
	for _, id := range t.order {
		if call := t.active[id]; call.Index == i {
			return call, true
		}
	}
	return nil, false
}

// FindSoleActive returns the active call if exactly one call is active.
func (t *Tracker) FindSoleActive() (*Call, bool) {
	if len(t.order) != 1 {
		return nil, false
	}
	return t.active[t.order[0]], true
}

// AppendArgs appends argument text to the active call for id, and returns
// the call.
func (t *Tracker) AppendArgs(id, delta string) (*Call, bool) {
	call, exists := t.active[id]
	if !exists {
		return nil, false
	}
	call.Args.WriteString(delta)
	return call, true
}
