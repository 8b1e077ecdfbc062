package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/veridid/pkg/handlers"
	"github.com/JaimeStill/veridid/pkg/openapi"
	"github.com/JaimeStill/veridid/pkg/routes"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// contentHandler serves content-addressed objects so clients can resolve
// the ipfs:// URIs embedded in published metadata.
type contentHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newContentHandler(store storage.System, logger *slog.Logger) *contentHandler {
	return &contentHandler{
		store:  store,
		logger: logger.With("handler", "content"),
	}
}

func (h *contentHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/content",
		Tags:        []string{"Content"},
		Description: "Content-addressed gateway for ipfs:// URIs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{cid}/{name}", Handler: h.get, OpenAPI: contentDoc},
		},
	}
}

var contentDoc = &openapi.Operation{
	Summary: "Resolve content",
	Parameters: []*openapi.Parameter{
		openapi.StringPathParam("cid", "Content identifier"),
		openapi.StringPathParam("name", "File name under the content identifier"),
	},
	Responses: map[int]*openapi.Response{
		200: {
			Description: "Stored bytes, immutable",
			Content: map[string]*openapi.MediaType{
				"application/octet-stream": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
			},
		},
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
	},
}

func (h *contentHandler) get(w http.ResponseWriter, r *http.Request) {
	obj := storage.Object{CID: r.PathValue("cid"), Name: r.PathValue("name")}

	data, err := storage.Get(r.Context(), h.store, obj.URI())
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", strconv.Quote(obj.CID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
