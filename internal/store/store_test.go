package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"minutes/internal/store"
	"minutes/internal/testsupport"
)

func TestPutCreatesAndMergesAdditively(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := st.Put(ctx, "meetings", "mtg_1", store.Fields{
		Status:      store.Ptr(store.StatusUploading),
		Progress:    store.Ptr(0),
		SourceName:  store.Ptr("standup.wav"),
		Language:    store.Ptr("en"),
		EngineModel: store.Ptr("large"),
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if created.Version != 1 || created.Status != store.StatusUploading || created.SourceName != "standup.wav" {
		t.Fatalf("unexpected created record: %+v", created)
	}
	if created.TranscriptionStatus != store.StagePending || created.AnalysisStatus != store.StagePending {
		t.Fatalf("expected pending stage statuses, got %q/%q", created.TranscriptionStatus, created.AnalysisStatus)
	}

	merged, err := st.Put(ctx, "meetings", "mtg_1", store.Fields{
		Status:       store.Ptr(store.StatusTranscribing),
		Progress:     store.Ptr(10),
		Participants: []string{"John Smith", "Sarah Jones"},
	})
	if err != nil {
		t.Fatalf("Put merge failed: %v", err)
	}
	if merged.SourceName != "standup.wav" || merged.Language != "en" || merged.EngineModel != "large" {
		t.Fatalf("absent fields must be preserved, got %+v", merged)
	}
	if merged.Progress != 10 || len(merged.Participants) != 2 {
		t.Fatalf("present fields must be updated, got %+v", merged)
	}
	if !merged.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt must increase: %v -> %v", created.UpdatedAt, merged.UpdatedAt)
	}
	if !merged.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt must be stable: %v -> %v", created.CreatedAt, merged.CreatedAt)
	}

	fetched, err := st.Get(ctx, "meetings", "mtg_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Version != 2 || fetched.Participants[1] != "Sarah Jones" || !fetched.UpdatedAt.Equal(merged.UpdatedAt) {
		t.Fatalf("unexpected fetched record: %+v", fetched)
	}
}

func TestPutStoresAnalysisFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	_, err := st.Put(ctx, "meetings", "mtg_2", store.Fields{
		Status:      store.Ptr(store.StatusCompleted),
		SummaryText: store.Ptr("summary"),
		ActionItems: []string{"John: send report"},
		KeyTopics:   []string{"Project Management"},
		Decisions:   []string{},
		Sentiment:   &store.Sentiment{Overall: "positive", Confidence: 0.8, PositiveIndicators: 3, EnergyLevel: "high"},
		Insights:    &store.Insights{ParticipationScore: 4, EngagementLevel: "medium", WordCount: 120, SpeakingRate: 150},
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rec, err := st.Get(ctx, "meetings", "mtg_2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Sentiment == nil || rec.Sentiment.Overall != "positive" || rec.Sentiment.Confidence != 0.8 {
		t.Fatalf("unexpected sentiment: %+v", rec.Sentiment)
	}
	if rec.Insights == nil || rec.Insights.WordCount != 120 {
		t.Fatalf("unexpected insights: %+v", rec.Insights)
	}
	if len(rec.ActionItems) != 1 || rec.KeyTopics[0] != "Project Management" || len(rec.Decisions) != 0 {
		t.Fatalf("unexpected lists: %+v", rec)
	}
}

func TestErrorPresentOnlyWhenFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec, err := st.Put(ctx, "meetings", "mtg_3", store.Fields{
		Status: store.Ptr(store.StatusTranscribing),
		Error:  store.Ptr("stray"),
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if rec.Error != "" {
		t.Fatalf("non-failed record must not carry an error, got %q", rec.Error)
	}

	rec, err = st.Put(ctx, "meetings", "mtg_3", store.Fields{
		Status:   store.Ptr(store.StatusFailed),
		Progress: store.Ptr(0),
		Error:    store.Ptr("engine crashed"),
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if rec.Error != "engine crashed" {
		t.Fatalf("expected error message, got %q", rec.Error)
	}

	rec, err = st.Put(ctx, "meetings", "mtg_4", store.Fields{Status: store.Ptr(store.StatusFailed)})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if rec.Error == "" {
		t.Fatal("failed record must carry an error")
	}
}

func TestPutRejectsInvalidInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.Put(ctx, "", "mtg", store.Fields{}); !errors.Is(err, store.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := st.Put(ctx, "meetings", "mtg", store.Fields{Progress: store.Ptr(101)}); !errors.Is(err, store.ErrInvalidFields) {
		t.Fatalf("expected ErrInvalidFields for progress, got %v", err)
	}
	if _, err := st.Put(ctx, "meetings", "mtg", store.Fields{Status: store.Ptr(store.Status("paused"))}); !errors.Is(err, store.ErrInvalidFields) {
		t.Fatalf("expected ErrInvalidFields for status, got %v", err)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.Get(context.Background(), "meetings", "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.History(context.Background(), "meetings", "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from History, got %v", err)
	}
}

func TestListOrdersByUpdatedAtAndBoundsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := st.Put(ctx, "meetings", fmt.Sprintf("mtg_%d", i), store.Fields{SourceName: store.Ptr("a.wav")}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if _, err := st.Put(ctx, "other", "mtg_x", store.Fields{SourceName: store.Ptr("b.wav")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// touching mtg_1 moves it to the front
	if _, err := st.Put(ctx, "meetings", "mtg_1", store.Fields{Progress: store.Ptr(10)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	records, err := st.List(ctx, "meetings", 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []string{"mtg_1", "mtg_4", "mtg_3"}
	for i, rec := range records {
		if rec.ID != want[i] {
			t.Fatalf("position %d: got %s want %s", i, rec.ID, want[i])
		}
		if rec.GroupID != "meetings" {
			t.Fatalf("List leaked group %q", rec.GroupID)
		}
	}

	all, err := st.List(ctx, "meetings", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected default limit to include all 5, got %d", len(all))
	}

	recent, err := st.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "mtg_1" {
		t.Fatalf("unexpected recent: %+v", recent)
	}
}

func TestHistoryAppendsEveryWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	steps := []store.Fields{
		{Status: store.Ptr(store.StatusUploading), Progress: store.Ptr(0), SourceName: store.Ptr("x.wav")},
		{Status: store.Ptr(store.StatusTranscribing), Progress: store.Ptr(10), EngineStatus: store.Ptr("initializing")},
		{Progress: store.Ptr(50)},
		{Status: store.Ptr(store.StatusCompleted), Progress: store.Ptr(100)},
	}
	for _, step := range steps {
		if _, err := st.Put(ctx, "meetings", "mtg_h", step); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	revisions, err := st.History(ctx, "meetings", "mtg_h")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(revisions) != len(steps) {
		t.Fatalf("expected %d revisions, got %d", len(steps), len(revisions))
	}
	wantProgress := []int{0, 10, 50, 100}
	for i, rev := range revisions {
		if rev.Version != int64(i+1) {
			t.Fatalf("revision %d has version %d", i, rev.Version)
		}
		if rev.Progress != wantProgress[i] {
			t.Fatalf("revision %d progress %d want %d", i, rev.Progress, wantProgress[i])
		}
		if i > 0 && !rev.RecordedAt.After(revisions[i-1].RecordedAt) {
			t.Fatalf("revision timestamps must increase")
		}
	}
	if got := revisions[2].Changed; len(got) != 1 || got[0] != "progress" {
		t.Fatalf("unexpected changed fields: %v", got)
	}
	if revisions[1].EngineStatus != "initializing" {
		t.Fatalf("unexpected engine status: %q", revisions[1].EngineStatus)
	}
}

func TestConcurrentPutsToSameKeyAreSerialized(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := st.Put(ctx, "meetings", "shared", store.Fields{Progress: store.Ptr(i)})
			errs <- err
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := st.Put(ctx, "meetings", fmt.Sprintf("other_%d", i), store.Fields{Progress: store.Ptr(i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Put failed: %v", err)
		}
	}

	rec, err := st.Get(ctx, "meetings", "shared")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Version != writers {
		t.Fatalf("expected %d versions, got %d", writers, rec.Version)
	}
	revisions, err := st.History(ctx, "meetings", "shared")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	for i := 1; i < len(revisions); i++ {
		if !revisions[i].RecordedAt.After(revisions[i-1].RecordedAt) {
			t.Fatalf("updatedAt not strictly increasing at revision %d", i)
		}
	}
}

func TestStatsHealthAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	put := func(id string, status store.Status) {
		t.Helper()
		if _, err := st.Put(ctx, "meetings", id, store.Fields{Status: store.Ptr(status)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	put("a", store.StatusCompleted)
	put("b", store.StatusFailed)
	put("c", store.StatusTranscribing)
	put("d", store.StatusUploading)

	health, err := st.Health(ctx, "")
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 4 || health.Active != 2 || health.Completed != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.LastUpdate.IsZero() {
		t.Fatal("expected last update timestamp")
	}

	dbHealth, err := st.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if dbHealth.Driver != "sqlite" || !dbHealth.IntegrityCheck || dbHealth.TotalRecords != 4 || dbHealth.SchemaVersion != 1 {
		t.Fatalf("unexpected db health: %+v", dbHealth)
	}

	removed, err := st.Prune(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 terminal records pruned, got %d", removed)
	}
	if _, err := st.Get(ctx, "meetings", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected pruned record to be gone, got %v", err)
	}
	if _, err := st.History(ctx, "meetings", "b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected pruned history to be gone, got %v", err)
	}
	if _, err := st.Get(ctx, "meetings", "c"); err != nil {
		t.Fatalf("active record must survive prune: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := first.Put(ctx, "meetings", "keep", store.Fields{SourceName: store.Ptr("k.wav")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	rec, err := second.Get(ctx, "meetings", "keep")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if rec.SourceName != "k.wav" {
		t.Fatalf("unexpected record after reopen: %+v", rec)
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("MINUTES_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MINUTES_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	st, err := store.OpenPostgres(ctx, dsn, store.Options{})
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	group := fmt.Sprintf("pgtest_%d", time.Now().UnixNano())
	if _, err := st.Put(ctx, group, "one", store.Fields{SourceName: store.Ptr("p.wav")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rec, err := st.Put(ctx, group, "one", store.Fields{Progress: store.Ptr(25)})
	if err != nil {
		t.Fatalf("Put merge failed: %v", err)
	}
	if rec.SourceName != "p.wav" || rec.Progress != 25 || rec.Version != 2 {
		t.Fatalf("unexpected merged record: %+v", rec)
	}
	records, err := st.List(ctx, group, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}
