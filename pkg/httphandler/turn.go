package httphandler

import (
	"net/http"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	sse "github.com/mutablelogic/go-agentstream/pkg/sse"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var doneSentinel = []byte("[DONE]")

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /turn
func TurnHandler(engine agentstream.Engine) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/turn", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				var req schema.TurnRequest
				if err := httprequest.Read(r, &req); err != nil {
					_ = httpresponse.Error(w, err)
					return
				} else if req.ThreadID == "" {
					_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("missing thread id"))
					return
				}
				turnStream(w, r, engine, req)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}, types.Ptr(openapi.PathItem{
			Post: &openapi.Operation{
				Description: "Run or resume a turn and stream the raw engine events",
			},
		})
}

// turnStream sends each raw event as one server-sent event. An error from
// the engine after the stream has started is sent as an error event.
func turnStream(w http.ResponseWriter, r *http.Request, engine agentstream.Engine, req schema.TurnRequest) {
	source, err := engine.Stream(r.Context(), req)
	if err != nil {
		_ = httpresponse.Error(w, httpErr(err))
		return
	}

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	out := sse.NewWriter(w)
	for ev, err := range source {
		if err != nil {
			ev = &schema.ErrorEvent{Message: err.Error()}
		}
		data, encErr := schema.EncodeRawEvent(ev)
		if encErr != nil {
			data, _ = schema.EncodeRawEvent(&schema.ErrorEvent{Message: encErr.Error()})
			err = encErr
		}
		if writeErr := out.WriteData(data); writeErr != nil || err != nil {
			break
		}
	}
	_ = out.WriteData(doneSentinel)
}
