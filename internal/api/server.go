package api

import (
	"net/http"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/internal/service"
)

type Server struct {
	service *service.Service
	logger  ratatosk.Logger
}

func NewServer(svc *service.Service, logger ratatosk.Logger) *Server {
	return &Server{
		service: svc,
		logger:  logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/resolve", s.resolve)
	mux.HandleFunc("POST /api/render", s.render)
	mux.HandleFunc("POST /api/submit", s.submit)
	mux.HandleFunc("GET /api/health", s.health)

	return mux
}
