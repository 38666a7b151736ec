package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

type errorResponse struct {
	Error string `json:"error"`
}

// parseScope lê accountId e kind da rota.
func parseScope(r *http.Request) (domain.Scope, error) {
	accountID, err := strconv.ParseInt(r.PathValue("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		return domain.Scope{}, fmt.Errorf("%w: invalid account id format", domain.ErrInvalidRecord)
	}

	kind, err := entities.ParseKind(r.PathValue("kind"))
	if err != nil {
		return domain.Scope{}, fmt.Errorf("%w: %s", domain.ErrInvalidRecord, err.Error())
	}

	return domain.Scope{AccountID: accountID, Kind: kind}, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

// writeError traduz os erros de domínio para status HTTP. O resto vira 500 com mensagem genérica.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrParentNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateSerialID),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrRecordHasChildren):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidRecord):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.ErrUnavailableServer.Error()})
	}
}

func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s format", domain.ErrInvalidRecord, name)
	}
	return value, nil
}
