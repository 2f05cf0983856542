package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"minutes/internal/api"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		switch r.URL.Path {
		case "/api/transcriptions":
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %s", r.Method)
			}
			var req api.SubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			_ = json.NewEncoder(w).Encode(api.SubmitResponse{ID: "mtg_1", GroupID: "meetings", Status: req.SourceName})
		case "/api/transcriptions/mtg_1":
			if r.URL.Query().Get("group") != "trace" {
				t.Errorf("missing group query: %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(api.RecordResponse{Record: api.Record{ID: "mtg_1", Status: "completed"}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "record not found"})
		}
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ack, err := client.Submit(context.Background(), api.SubmitRequest{SourceName: "standup.wav"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.ID != "mtg_1" || ack.Status != "standup.wav" {
		t.Fatalf("unexpected ack %+v", ack)
	}

	rec, err := client.Get(context.Background(), "trace", "mtg_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != "completed" {
		t.Fatalf("unexpected record %+v", rec)
	}

	_, err = client.Get(context.Background(), "", "missing")
	if !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "record not found" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestClientReportsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	client, err := api.NewClient(addr, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Status(context.Background())
	if !api.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if _, err := api.NewClient("  ", ""); !errors.Is(err, api.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty bind, got %v", err)
	}
}

func TestClientQueryParameters(t *testing.T) {
	queries := map[string]url.Values{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries[r.URL.Path] = r.URL.Query()
		switch r.URL.Path {
		case "/api/logs":
			_ = json.NewEncoder(w).Encode(api.LogStreamResponse{
				Events: []api.LogEvent{{Timestamp: "2026-01-02T03:04:05.000Z", Level: "INFO", Message: "hello"}},
				Next:   42,
			})
		default:
			_ = json.NewEncoder(w).Encode(api.EventStreamResponse{Next: 7})
		}
	}))
	defer srv.Close()
	client, err := api.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	logs, err := client.Logs(context.Background(), api.LogQuery{
		Since:         3,
		Limit:         50,
		Follow:        true,
		Tail:          true,
		Component:     "transcription",
		GroupID:       "meetings",
		RecordID:      "mtg_1",
		CorrelationID: "req-1",
		Level:         "warn",
	})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs.Events) != 1 || logs.Next != 42 {
		t.Fatalf("unexpected log response %+v", logs)
	}
	if _, err := client.Events(context.Background(), api.EventQuery{Limit: 5, RecordID: "mtg_1", Topic: " work-accepted "}); err != nil {
		t.Fatalf("events: %v", err)
	}

	checks := map[string]map[string]string{
		"/api/logs": {
			"since": "3", "limit": "50", "follow": "1", "tail": "1",
			"component": "transcription", "group": "meetings", "record": "mtg_1",
			"correlation_id": "req-1", "level": "warn",
		},
		"/api/events": {"limit": "5", "record": "mtg_1", "topic": "work-accepted", "since": "", "group": ""},
	}
	for path, want := range checks {
		for key, value := range want {
			if got := queries[path].Get(key); got != value {
				t.Fatalf("%s query[%s]: expected %q, got %q", path, key, value, got)
			}
		}
	}
}
