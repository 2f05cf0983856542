package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"minutes/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEngine, "transcription", "run", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcription", "run", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "ingress", "validate", "missing", nil), "validation"},
		{services.Wrap(services.ErrTimeout, "transcription", "run", "deadline", context.DeadlineExceeded), "timeout"},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrEngine, "", "", "exit 1", nil)), "engine"},
		{errors.New("disk full"), "internal"},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsInternal(t *testing.T) {
	if services.IsInternal(nil) {
		t.Fatal("nil error must not be internal")
	}
	if !services.IsInternal(errors.New("sqlite busy")) {
		t.Fatal("expected unmarked error to be internal")
	}
	if services.IsInternal(services.Wrap(services.ErrEngine, "", "", "bad audio", nil)) {
		t.Fatal("engine errors are not internal")
	}
	if !services.IsInternal(services.Wrap(services.ErrTransient, "store", "put", "", nil)) {
		t.Fatal("transient errors are internal")
	}
}

func TestDetails(t *testing.T) {
	kind, msg := services.Details(services.Wrap(services.ErrEngine, "transcription", "run", "bad audio", nil))
	if kind != "engine" || msg != "transcription: run: bad audio" {
		t.Fatalf("unexpected engine details: %q %q", kind, msg)
	}
	kind, msg = services.Details(errors.New("database is locked"))
	if kind != "internal" || msg != "internal error" {
		t.Fatalf("internal faults must not leak: %q %q", kind, msg)
	}
	if kind, msg := services.Details(nil); kind != "" || msg != "" {
		t.Fatalf("expected empty details for nil, got %q %q", kind, msg)
	}
}
