package httpapi

import "net/http"

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /postings", s.handlePostings)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}
