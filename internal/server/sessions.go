package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/royceleh/polly/internal/db"

	"gorm.io/gorm"
)

const sessionCookie = "polly_session"

// sessionStore keeps the flash message and logged-in user per session
// cookie. With a database it survives restarts; without one it falls back
// to an in-memory map, which is what tests use.
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]sessionData
}

type sessionData struct {
	Flash  string
	UserID uint
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]sessionData),
	}
}

func (s *sessionStore) SetFlash(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		return
	}
	id := s.ensureSessionID(w, r)
	record := db.Session{ID: id, Flash: message, UserID: s.UserID(w, r)}
	s.save(id, record)
}

func (s *sessionStore) PopFlash(w http.ResponseWriter, r *http.Request) string {
	id := s.ensureSessionID(w, r)
	record, ok := s.load(id)
	if !ok || record.Flash == "" {
		return ""
	}
	message := record.Flash
	record.Flash = ""
	s.save(id, record)
	return message
}

func (s *sessionStore) SetUser(w http.ResponseWriter, r *http.Request, userID uint) {
	id := s.ensureSessionID(w, r)
	record, _ := s.load(id)
	record.ID = id
	record.UserID = userID
	s.save(id, record)
}

func (s *sessionStore) ClearUser(w http.ResponseWriter, r *http.Request) {
	s.SetUser(w, r, 0)
}

func (s *sessionStore) UserID(w http.ResponseWriter, r *http.Request) uint {
	id := s.ensureSessionID(w, r)
	record, ok := s.load(id)
	if !ok {
		return 0
	}
	return record.UserID
}

func (s *sessionStore) load(id string) (db.Session, bool) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		data, ok := s.sessions[id]
		return db.Session{ID: id, Flash: data.Flash, UserID: data.UserID}, ok
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return db.Session{ID: id}, false
	}
	return record, true
}

func (s *sessionStore) save(id string, record db.Session) {
	if s.db == nil {
		s.mu.Lock()
		s.sessions[id] = sessionData{Flash: record.Flash, UserID: record.UserID}
		s.mu.Unlock()
		return
	}
	record.ID = id
	_ = s.db.Save(&record).Error
}

func (s *sessionStore) ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
