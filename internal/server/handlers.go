package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/voidtab/voidtab/internal/cloudsync"
	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": s.store.Loaded(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Document())
}

// handlePutConfig accepts any JSON document; it runs through the
// normalization pipeline, so malformed input becomes a valid document
// rather than an error.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	s.store.ReplaceDocument(raw)
	writeJSON(w, http.StatusOK, s.store.Document())
}

func (s *Server) handlePatchTheme(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	s.store.UpdateTheme(patch)
	writeJSON(w, http.StatusOK, s.store.Document().Theme)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	group := s.store.AddGroup(body.Title)
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var patch store.GroupPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	s.store.UpdateGroup(chi.URLParam(r, "groupID"), patch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveGroup(chi.URLParam(r, "groupID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var item config.SiteItem
	if !decodeBody(w, r, &item) {
		return
	}
	added, err := s.store.AddSite(chi.URLParam(r, "groupID"), item)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	var patch store.SitePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	s.store.UpdateSite(chi.URLParam(r, "groupID"), chi.URLParam(r, "siteID"), patch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSite(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveSite(chi.URLParam(r, "groupID"), chi.URLParam(r, "siteID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEngine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" || body.URL == "" {
		writeError(w, http.StatusBadRequest, "name and url are required")
		return
	}
	engine := s.store.AddEngine(body.Name, body.URL)
	writeJSON(w, http.StatusCreated, engine)
}

func (s *Server) handleRemoveEngine(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveEngine(chi.URLParam(r, "engineID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCurrentEngine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.store.SetCurrentEngine(body.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetWidgetVisible(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible bool `json:"visible"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.store.SetWidgetVisible(chi.URLParam(r, "widgetID"), body.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateWidgetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	s.store.UpdateWidgetConfig(chi.URLParam(r, "widgetID"), patch)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSyncProfile redacts the password; the UI resends it only when
// the user edits credentials.
func (s *Server) handleGetSyncProfile(w http.ResponseWriter, _ *http.Request) {
	profile := s.store.Profile()
	profile.Password = ""
	writeJSON(w, http.StatusOK, profile)
}

// handlePutSyncProfile also moves the scheduler lifecycle along with the
// profile: enabling a provider starts the loop right away, disabling
// stops it. Waiting for a restart would leave a freshly enabled profile
// dead.
func (s *Server) handlePutSyncProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	s.store.UpdateSyncProfile(patch)

	profile := s.store.Profile()
	if profile.Enabled && profile.Provider != cloudsync.ProviderNone {
		s.store.StartSync()
	} else {
		s.store.StopSync()
	}

	profile.Password = ""
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSyncTest(w http.ResponseWriter, r *http.Request) {
	result := s.store.TestSync(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncNow(w http.ResponseWriter, _ *http.Request) {
	// TickNow is a no-op on a stopped scheduler; a 200 here would claim a
	// reconciliation that never happens.
	if !s.store.SyncRunning() {
		writeError(w, http.StatusConflict, "sync is not running; enable a sync provider first")
		return
	}
	s.store.SyncNow()
	writeJSON(w, http.StatusOK, map[string]string{"status": "triggered"})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	profile := s.store.Profile()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":              s.store.SyncRunning(),
		"provider":             profile.Provider,
		"enabled":              profile.Enabled,
		"autoSync":             profile.AutoSync,
		"intervalMinutes":      profile.Interval(),
		"lastSyncTime":         profile.LastSyncTime,
		"revision":             s.store.Revision(),
		"lastUploadedRevision": s.store.LastUploadedRevision(),
	})
}
