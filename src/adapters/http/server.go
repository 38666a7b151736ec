package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backoffice/src/services/hierarchy"
)

// Server representa o servidor HTTP da API
type Server struct {
	logger           *slog.Logger
	server           *http.Server
	mux              *http.ServeMux
	port             int
	hierarchyService *hierarchy.HierarchyService
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	hierarchyService *hierarchy.HierarchyService,
) *Server {
	server := &Server{
		mux:              http.NewServeMux(),
		port:             port,
		logger:           logger,
		hierarchyService: hierarchyService,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Rotas de Leitura
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/tree", server.GetTree)
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/search", server.SearchRecords)
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/roots", server.GetRoots)
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/by-parent-serial/{parentSerialId}", server.GetChildren)
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/by-serial/{serialId}", server.GetRecord)
	server.mux.HandleFunc("GET /v1/accounts/{accountId}/{kind}/legal-parents", server.GetLegalParents)

	// Rotas de Escritas
	server.mux.HandleFunc("POST /v1/accounts/{accountId}/{kind}", server.CreateRecord)
	server.mux.HandleFunc("PUT /v1/accounts/{accountId}/{kind}/{serialId}", server.UpdateRecord)
	server.mux.HandleFunc("DELETE /v1/accounts/{accountId}/{kind}/{serialId}", server.DeleteRecord)
	server.mux.HandleFunc("POST /v1/accounts/{accountId}/{kind}/sync", server.SyncRecords)

	server.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return server
}

// Handler expõe o roteador para testes com httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
