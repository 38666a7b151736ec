package http

import (
	"net/http"
	"strconv"

	"backoffice/src/domain"
)

// GetTree devolve a floresta e a visão plana. Com q, só os registros encontrados e seus ancestrais.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var filters []domain.PropertyFilter
	if activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly")); activeOnly {
		filters = append(filters, domain.ActiveOnly)
	}

	assembly, err := s.hierarchyService.GetTree(r.Context(), scope, r.URL.Query().Get("q"), filters...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapAssemblyToResponse(assembly))
}

func (s *Server) SearchRecords(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := queryInt(r, "page", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.hierarchyService.SearchRecords(r.Context(), scope, r.URL.Query().Get("q"), page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, RecordPageResponse{
		List:  MapRecordsToResponse(result.List),
		Count: result.Count,
	})
}

func (s *Server) GetRoots(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	roots, err := s.hierarchyService.GetRoots(r.Context(), scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapRecordsToResponse(roots))
}

func (s *Server) GetChildren(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	children, err := s.hierarchyService.GetChildren(r.Context(), scope, r.PathValue("parentSerialId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapRecordsToResponse(children))
}

func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	record, err := s.hierarchyService.GetRecord(r.Context(), scope, r.PathValue("serialId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapRecordToResponse(record))
}

// GetLegalParents alimenta o select de pai. Sem serialId, o registro é novo e qualquer um serve.
func (s *Server) GetLegalParents(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parents, err := s.hierarchyService.GetLegalParents(r.Context(), scope, r.URL.Query().Get("serialId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapRecordsToResponse(parents))
}
