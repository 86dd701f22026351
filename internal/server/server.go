package server

import (
	"net/http"

	"github.com/royceleh/polly/internal/config"
	"github.com/royceleh/polly/internal/market"

	"gorm.io/gorm"
)

type Server struct {
	db       *gorm.DB
	market   *market.Service
	cfg      config.Config
	sessions *sessionStore
	homeWS   *homeHub
}

func New(conn *gorm.DB, svc *market.Service, cfg config.Config) *Server {
	return &Server{
		db:       conn,
		market:   svc,
		cfg:      cfg,
		sessions: newSessionStore(conn),
		homeWS:   newHomeHub(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /polls/create", s.handleCreateView)
	mux.HandleFunc("GET /rewards", s.handleRewardsView)
	mux.HandleFunc("GET /dashboard", s.handleDashboardView)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/polls", s.handleListPolls)
	mux.HandleFunc("POST /api/polls", s.handleCreatePoll)
	mux.HandleFunc("POST /api/polls/{id}/vote", s.handleVote)
	mux.HandleFunc("GET /api/points", s.handlePoints)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/rewards", s.handleListRewards)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.handleRedeem)
	mux.HandleFunc("GET /api/redemptions", s.handleRedemptions)

	mux.HandleFunc("GET /ws/home", s.handleHomeWebsocket)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.MediaDir))))
	return mux
}
