package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"backoffice/src/domain"
)

func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var request RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body: %s", domain.ErrInvalidRecord, err.Error()))
		return
	}

	record, err := s.hierarchyService.CreateRecord(r.Context(), request.ToInput(scope))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, MapRecordToResponse(record))
}

// UpdateRecord usa o serial da rota como original; o corpo pode trazer um serial novo.
func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var request RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body: %s", domain.ErrInvalidRecord, err.Error()))
		return
	}

	originalSerialID := r.PathValue("serialId")
	if request.SerialID == "" {
		request.SerialID = originalSerialID
	}

	record, err := s.hierarchyService.UpdateRecord(r.Context(), originalSerialID, request.ToInput(scope))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapRecordToResponse(record))
}

func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.hierarchyService.DeleteRecord(r.Context(), scope, r.PathValue("serialId")); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SyncRecords(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var request SyncRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body: %s", domain.ErrInvalidRecord, err.Error()))
		return
	}

	if len(request.Records) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: records is required and cannot be empty", domain.ErrInvalidRecord))
		return
	}

	if err := s.hierarchyService.SyncRecords(r.Context(), request.ToDomain(scope)); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, `{"status": "sync request accepted for processing"}`)
}
