// Package handler contains chi HTTP handlers that expose the registration
// form controller as a JSON API plus a server-rendered page.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
	"github.com/Shivanand-hulikatti/community-registration/internal/service"
)

const maxUploadBytes = 10 << 20

// RegistrationHandler holds all HTTP handlers for the registration form.
type RegistrationHandler struct {
	sessions *service.Sessions
	log      zerolog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(sessions *service.Sessions, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{sessions: sessions, log: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respond writes the controller state together with anything queued in the
// session outbox.
func respond(w http.ResponseWriter, status int, sess *service.Session) {
	links, notices := sess.Outbox.Drain()
	writeJSON(w, status, model.FormResponse{
		State:   sess.Controller.Snapshot(),
		Notices: notices,
		Open:    links,
	})
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, service.ErrShareIncomplete):
		return http.StatusPreconditionFailed
	case errors.Is(err, service.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSubmitFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *RegistrationHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := h.sessions.Get(r.Context(), ClientID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("load session")
		writeError(w, http.StatusServiceUnavailable, "registration is temporarily unavailable")
		return nil, false
	}
	return sess, true
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// State handles GET /api/registration
func (h *RegistrationHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, sess)
}

// UpdateField handles PUT /api/registration/fields/{field}
func (h *RegistrationHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req model.FieldUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	field := model.Field(chi.URLParam(r, "field"))
	if err := sess.Controller.UpdateField(field, req.Value); err != nil {
		if errors.Is(err, service.ErrUnknownField) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		respond(w, statusFor(err), sess)
		return
	}
	respond(w, http.StatusOK, sess)
}

// UploadFile handles POST /api/registration/file
// Only the multipart header of the "file" part is read.
func (h *RegistrationHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	err := sess.Controller.ChooseFile(r.Context(), multipartPicker{r: r})
	switch {
	case err == nil:
		respond(w, http.StatusOK, sess)
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrSubmitted):
		respond(w, statusFor(err), sess)
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// ClearFile handles DELETE /api/registration/file
func (h *RegistrationHandler) ClearFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Controller.SelectFile(nil); err != nil {
		respond(w, statusFor(err), sess)
		return
	}
	respond(w, http.StatusOK, sess)
}

// Share handles POST /api/registration/share
// The deep link to open is returned in the "open" list.
func (h *RegistrationHandler) Share(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Controller.Share(); err != nil {
		respond(w, statusFor(err), sess)
		return
	}
	respond(w, http.StatusOK, sess)
}

// Submit handles POST /api/registration/submit
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Controller.Submit(r.Context()); err != nil {
		respond(w, statusFor(err), sess)
		return
	}
	respond(w, http.StatusOK, sess)
}

// multipartPicker takes the first "file" part of a multipart request as the
// picked file. A request without one is a cancelled prompt.
type multipartPicker struct {
	r *http.Request
}

func (p multipartPicker) PickFile(context.Context) (*model.Attachment, error) {
	mr, err := p.r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		name := part.FileName()
		if name == "" {
			return nil, nil
		}
		return &model.Attachment{
			Name:        name,
			ContentType: part.Header.Get("Content-Type"),
		}, nil
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
