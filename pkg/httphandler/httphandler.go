// Package httphandler registers the HTTP endpoints of an agentstream
// server: the chat endpoint which streams AI SDK UI messages, and the turn
// endpoint which streams raw engine events to a remote adapter.
package httphandler

import (
	"errors"
	"net/http"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	server "github.com/mutablelogic/go-server"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	jsonschema "github.com/mutablelogic/go-server/pkg/jsonschema"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Router interface {
	server.HTTPRouter
	RegisterPath(path string, params *jsonschema.Schema, pathitem httprequest.PathItem) error
}

// pathItem is a handler which dispatches on the request method itself
type pathItem struct {
	handler http.HandlerFunc
	spec    *openapi.PathItem
}

var _ httprequest.PathItem = (*pathItem)(nil)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers the chat and turn endpoints for an engine under
// the router prefix, wrapped by the router middleware. The adapter options
// apply to every chat turn.
func RegisterHandlers(engine agentstream.Engine, router Router, opts ...adapter.Opt) error {
	var result error

	// Convenience function to register a handler and accumulate any errors
	register := func(path string, handler http.HandlerFunc, spec *openapi.PathItem) {
		path = strings.TrimPrefix(path, "/")
		result = errors.Join(result, router.RegisterPath(path, nil, &pathItem{handler: handler, spec: spec}))
	}

	// Register handlers
	register(ChatHandler(engine, opts...))
	register(TurnHandler(engine))

	// Return any errors
	return result
}

///////////////////////////////////////////////////////////////////////////////
// PATH ITEM

func (p *pathItem) Handler() http.HandlerFunc {
	return p.handler
}

func (p *pathItem) Spec(string, *jsonschema.Schema) *openapi.PathItem {
	return p.spec
}

func (p *pathItem) WrapHandler(_ string, fn func(http.HandlerFunc) http.HandlerFunc) {
	p.handler = fn(p.handler)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// httpErr converts an agentstream.Err to an httpresponse.Err, preserving the
// original error message. Unknown error codes map to 500.
func httpErr(err error) error {
	var code agentstream.Err
	if !errors.As(err, &code) {
		return err
	}
	switch code {
	case agentstream.ErrNotFound:
		return httpresponse.ErrNotFound.With(err)
	case agentstream.ErrBadParameter:
		return httpresponse.ErrBadRequest.With(err)
	case agentstream.ErrConflict, agentstream.ErrAlreadyStarted:
		return httpresponse.ErrConflict.With(err)
	case agentstream.ErrNotImplemented:
		return httpresponse.ErrNotImplemented.With(err)
	default:
		return httpresponse.ErrInternalError.With(err)
	}
}
