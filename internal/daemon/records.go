package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"minutes/internal/api"
	"minutes/internal/pipeline"
	"minutes/internal/store"
)

// groupHeader selects the record group when no group query parameter is set.
const groupHeader = "X-Group-ID"

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body api.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if body.GroupID == "" {
		body.GroupID = strings.TrimSpace(r.Header.Get(groupHeader))
	}

	ack, err := s.daemon.Ingress().Submit(r.Context(), pipeline.Request{
		SourceName:    body.SourceName,
		Language:      body.Language,
		ModelHint:     body.ModelHint,
		EngineOptions: body.EngineOptions,
		GroupID:       body.GroupID,
	})
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, verr.Message, verr.Details)
			return
		}
		s.writeFault(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmitResponse{
		ID:      ack.ID,
		GroupID: ack.GroupID,
		Status:  ack.Status,
	})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.daemon.store.List(r.Context(), s.group(r), queryInt(r, "limit"))
	if err != nil {
		if errors.Is(err, store.ErrInvalidKey) {
			s.writeError(w, http.StatusBadRequest, "Invalid group", err.Error())
			return
		}
		s.writeFault(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RecordListResponse{Records: api.FromRecords(records)})
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	group, id := s.group(r), r.PathValue("id")
	rec, err := s.daemon.store.Get(r.Context(), group, id)
	if err != nil {
		s.writeLookupError(w, r, err, group, id)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RecordResponse{Record: api.FromRecord(rec)})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	group, id := s.group(r), r.PathValue("id")
	revisions, err := s.daemon.store.History(r.Context(), group, id)
	if err != nil {
		s.writeLookupError(w, r, err, group, id)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{
		GroupID:   group,
		ID:        id,
		Revisions: api.FromRevisions(revisions),
	})
}

func (s *apiServer) writeLookupError(w http.ResponseWriter, r *http.Request, err error, group, id string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Transcription not found", group+"/"+id)
	case errors.Is(err, store.ErrInvalidKey):
		s.writeError(w, http.StatusBadRequest, "Invalid record key", err.Error())
	default:
		s.writeFault(w, r, err)
	}
}

// group resolves the record group: query parameter, then header, then the
// configured default.
func (s *apiServer) group(r *http.Request) string {
	if group := strings.TrimSpace(r.URL.Query().Get("group")); group != "" {
		return group
	}
	if group := strings.TrimSpace(r.Header.Get(groupHeader)); group != "" {
		return group
	}
	return s.daemon.cfg.Pipeline.DefaultGroup
}
