package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	State     model.Snapshot
	Submitted bool
	Colleges  []string
	Accept    string
}

// Page handles GET /
// Every page load starts a fresh controller: the draft and share progress
// are discarded and the persisted submitted flag decides which view renders.
func (h *RegistrationHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r.Context(), ClientID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("load session")
		http.Error(w, "registration is temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	snap := sess.Controller.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = pageTemplate.Execute(w, pageData{
		State:     snap,
		Submitted: snap.State == model.StateSubmitted,
		Colleges:  model.Colleges,
		Accept:    model.AcceptFilter,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("render page")
	}
}
