package services_test

import (
	"context"
	"testing"

	"minutes/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRecord(ctx, "meetings", "mtg_abc")
	ctx = services.WithStage(ctx, "transcription")
	ctx = services.WithRequestID(ctx, "req-123")

	if group, ok := services.GroupIDFromContext(ctx); !ok || group != "meetings" {
		t.Fatalf("unexpected group: %v %v", group, ok)
	}
	if id, ok := services.RecordIDFromContext(ctx); !ok || id != "mtg_abc" {
		t.Fatalf("unexpected record id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcription" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestWithGroupIDOverridesRecordGroup(t *testing.T) {
	ctx := services.WithRecord(context.Background(), "meetings", "")
	ctx = services.WithGroupID(ctx, "standups")
	if group, _ := services.GroupIDFromContext(ctx); group != "standups" {
		t.Fatalf("expected latest group to win, got %q", group)
	}
	if _, ok := services.RecordIDFromContext(ctx); ok {
		t.Fatal("blank record id should not be stored")
	}
	if _, ok := services.RequestIDFromContext(context.Background()); ok {
		t.Fatal("expected no request id on a bare context")
	}
}
