package service

import (
	"context"
	"testing"
	"time"

	"mistctl"
)

type recordingEventRepo struct {
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	resp     []mistctl.Event
	err      error
}

func (r *recordingEventRepo) Append(_ context.Context, _ mistctl.Event) error { return nil }

func (r *recordingEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]mistctl.Event, error) {
	r.lastFrom, r.lastTo, r.lastType = from, to, typ
	return r.resp, r.err
}

func TestEventLogList_NormalizesFilter(t *testing.T) {
	t.Parallel()

	repo := &recordingEventRepo{resp: []mistctl.Event{{EventID: "1"}}}
	svc := NewEventLogService(repo)

	loc := time.FixedZone("UTC+5", 5*3600)
	from := time.Date(2026, 8, 1, 10, 0, 0, 0, loc)

	got, err := svc.List(context.Background(), LogFilter{
		From: from,
		Type: "  mode_change ",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 event, got %d", len(got))
	}
	if repo.lastFrom != from.UTC() {
		t.Fatalf("from not normalized to UTC: %v", repo.lastFrom)
	}
	if !repo.lastTo.IsZero() {
		t.Fatalf("zero to must stay zero: %v", repo.lastTo)
	}
	if repo.lastType != "MODE_CHANGE" {
		t.Fatalf("type not normalized: %q", repo.lastType)
	}
}

func TestEventLogList_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewEventLogService(&recordingEventRepo{})
	now := time.Now()
	_, err := svc.List(context.Background(), LogFilter{From: now, To: now.Add(-time.Hour)})
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}
