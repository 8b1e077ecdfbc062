package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/veridid/internal/workflow"
	"github.com/JaimeStill/veridid/pkg/handlers"
	"github.com/JaimeStill/veridid/pkg/routes"
)

// FacesHeader carries the client-side face detection count for a pushed frame.
const FacesHeader = "X-Faces-Detected"

// Handler provides HTTP endpoints for verification sessions.
type Handler struct {
	reg           *Registry
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(reg *Registry, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		reg:           reg,
		logger:        logger.With("handler", "sessions"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions",
		Tags:        []string{"Sessions"},
		Description: "Identity verification sessions from wallet connection to DID publish",
		Schemas:     schemas(),
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: docs.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Status, OpenAPI: docs.Status},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: docs.Delete},
			{Method: "POST", Pattern: "/{id}/wallet", Handler: h.ConnectWallet, OpenAPI: docs.ConnectWallet},
			{Method: "POST", Pattern: "/{id}/document", Handler: h.UploadDocument, OpenAPI: docs.UploadDocument},
			{Method: "POST", Pattern: "/{id}/advance", Handler: h.Advance, OpenAPI: docs.Advance},
			{Method: "POST", Pattern: "/{id}/reenter", Handler: h.Reenter, OpenAPI: docs.Reenter},
			{Method: "POST", Pattern: "/{id}/liveness/start", Handler: h.StartLiveness, OpenAPI: docs.StartLiveness},
			{Method: "POST", Pattern: "/{id}/liveness/frames", Handler: h.PushFrame, OpenAPI: docs.PushFrame},
			{Method: "POST", Pattern: "/{id}/liveness/cancel", Handler: h.CancelLiveness, OpenAPI: docs.CancelLiveness},
			{Method: "POST", Pattern: "/{id}/liveness/retake", Handler: h.RetakeLiveness, OpenAPI: docs.RetakeLiveness},
			{Method: "POST", Pattern: "/{id}/publish", Handler: h.Publish, OpenAPI: docs.Publish},
		},
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.reg.Create()
	handlers.RespondJSON(w, http.StatusCreated, s.Status())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	s, err := h.reg.Get(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s.Status())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.reg.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConnectWallet accepts {"address": "0x..."}.
func (h *Handler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	status, err := h.reg.ConnectWallet(r.Context(), id, req.Address)
	h.respond(w, http.StatusOK, status, err)
}

// UploadDocument accepts a multipart form with the ID image in the "file" field.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if r.ContentLength > h.maxUploadSize {
		h.fail(w, ErrImageTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.fail(w, uploadError(err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: missing file field", ErrInvalidRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	status, err := h.reg.UploadDocument(r.Context(), id, data)
	h.respond(w, http.StatusAccepted, status, err)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	status, err := h.reg.Advance(r.Context(), id)
	h.respond(w, http.StatusOK, status, err)
}

// Reenter accepts {"step": "extraction"}.
func (h *Handler) Reenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Step string `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	step, err := workflow.ParseStep(req.Step)
	if err != nil {
		h.fail(w, err)
		return
	}

	status, err := h.reg.Reenter(r.Context(), id, step)
	h.respond(w, http.StatusOK, status, err)
}

func (h *Handler) StartLiveness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	status, err := h.reg.StartLiveness(r.Context(), id)
	h.respond(w, http.StatusAccepted, status, err)
}

// PushFrame accepts a raw PNG, JPEG, or WebP frame as the request body.
func (h *Handler) PushFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var faces *int
	if v := r.Header.Get(FacesHeader); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.fail(w, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidRequest, FacesHeader))
			return
		}
		faces = &n
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		h.fail(w, uploadError(err))
		return
	}

	status, err := h.reg.PushFrame(id, data, faces)
	h.respond(w, http.StatusOK, status, err)
}

func (h *Handler) CancelLiveness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	status, err := h.reg.CancelLiveness(r.Context(), id)
	h.respond(w, http.StatusOK, status, err)
}

func (h *Handler) RetakeLiveness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	status, err := h.reg.RetakeLiveness(r.Context(), id)
	h.respond(w, http.StatusOK, status, err)
}

// Publish accepts {"demo_mode": bool, "demo_data": {...}}. An empty body publishes verified data.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	result, err := h.reg.Publish(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, code int, status Status, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, code, status)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrImageTooLarge
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}
