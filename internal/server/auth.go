package server

import (
	"net/http"
	"strings"

	"github.com/royceleh/polly/internal/db"
	"github.com/royceleh/polly/internal/logging"
)

const maxNameLength = 64

// currentUser resolves the acting user from the session. The second
// return is false for anonymous requests.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	id := s.sessions.UserID(w, r)
	if id == 0 {
		return nil, false
	}
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, false
	}
	return &user, true
}

type loginRequest struct {
	Name string `json:"name"`
}

// handleLogin claims a display name, creating the user on first sight,
// and binds it to the session. It stands in for an external identity
// provider; everything downstream only sees the resolved user id.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := normalizeName(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(name) > maxNameLength {
		writeError(w, http.StatusBadRequest, "name is too long")
		return
	}

	var user db.User
	if err := s.db.Where("name = ?", name).FirstOrCreate(&user, db.User{Name: name}).Error; err != nil {
		logging.Log.WithError(err).Error("login failed")
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	s.sessions.SetUser(w, r, user.ID)
	logging.Log.WithField("user_id", user.ID).Info("user logged in")
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"name":    user.Name,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearUser(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func normalizeName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	return strings.Join(fields, " ")
}
