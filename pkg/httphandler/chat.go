package httphandler

import (
	"net/http"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	resume "github.com/mutablelogic/go-agentstream/pkg/resume"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	sse "github.com/mutablelogic/go-agentstream/pkg/sse"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /chat
func ChatHandler(engine agentstream.Engine, opts ...adapter.Opt) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/chat", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				var req schema.ChatRequest
				if err := httprequest.Read(r, &req); err != nil {
					_ = httpresponse.Error(w, err)
					return
				} else if req.ID == "" {
					_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("missing chat id"))
					return
				}
				chatStream(w, r, engine, req, opts)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}, types.Ptr(openapi.PathItem{
			Post: &openapi.Operation{
				Description: "Run or resume a turn of the conversation and stream the assistant message",
			},
		})
}

// chatStream runs the turn and sends the frames as a UI message stream.
// Errors before the first frame are returned as an HTTP error; once the
// stream has started, errors are reported within the stream.
func chatStream(w http.ResponseWriter, r *http.Request, engine agentstream.Engine, req schema.ChatRequest, opts []adapter.Opt) {
	turn, resumeCtx := resume.Request(req)

	a, err := adapter.New(append(append([]adapter.Opt{}, opts...), adapter.WithResume(resumeCtx))...)
	if err != nil {
		_ = httpresponse.Error(w, httpErr(err))
		return
	}
	source, err := engine.Stream(r.Context(), turn)
	if err != nil {
		_ = httpresponse.Error(w, httpErr(err))
		return
	}

	sse.SetHeaders(w)
	w.WriteHeader(http.StatusOK)
	_ = a.Wire(r.Context(), w, source)
}
