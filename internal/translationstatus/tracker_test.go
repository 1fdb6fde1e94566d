package translationstatus_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/translationstatus"
	"github.com/goliatone/go-cms-composer/pkg/testsupport"
)

var errStale = errors.New("stale")

type fakeStore struct {
	snapshot  translationstatus.Snapshot
	conflicts int
	saves     int
}

func (f *fakeStore) LoadSnapshot(context.Context, uuid.UUID) (translationstatus.Snapshot, error) {
	s := f.snapshot
	s.Meta = s.Meta.Clone()
	return s, nil
}

func (f *fakeStore) SaveMeta(_ context.Context, _ uuid.UUID, meta translationstatus.PageMeta, expected int64) (int64, error) {
	if f.conflicts > 0 {
		f.conflicts--
		f.snapshot.Version++
		return 0, errStale
	}
	if expected != f.snapshot.Version {
		return 0, errStale
	}
	f.saves++
	f.snapshot.Meta = meta
	f.snapshot.Version++
	return f.snapshot.Version, nil
}

func newStore(t *testing.T) *fakeStore {
	en := testsupport.NewTree().
		Canvas(nodes.RootID, "S1", "Section", nil).
		Leaf("S1", "T1", "Text", map[string]any{"text": "Hello"}).
		MustTree(t)
	fi := testsupport.NewTree().
		Canvas(nodes.RootID, "S1", "Section", nil).
		Leaf("S1", "T1", "Text", map[string]any{"text": "Hei"}).
		MustTree(t)
	meta := translationstatus.PageMeta{}
	meta.RecordAutoTranslation("S1", "en", "fi", time.Now(), false)
	meta.RecordAutoTranslation("T1", "en", "fi", time.Now(), true)
	return &fakeStore{snapshot: translationstatus.Snapshot{
		PageID:        uuid.New(),
		DefaultLocale: "en",
		Version:       3,
		Trees:         map[string]*nodes.Tree{"en": en, "fi": fi},
		Meta:          meta,
	}}
}

func TestTrackerQueries(t *testing.T) {
	store := newStore(t)
	tracker := translationstatus.NewTracker(store, []string{"en", "fi", "sv"})
	ctx := context.Background()

	missing, err := tracker.MissingLocales(ctx, store.snapshot.PageID)
	if err != nil || !slices.Equal(missing, []string{"sv"}) {
		t.Fatalf("missing locales = %v, %v", missing, err)
	}
	pending, err := tracker.NeedsReview(ctx, store.snapshot.PageID, "fi")
	if err != nil || !slices.Equal(pending, []string{"S1", "T1"}) {
		t.Fatalf("needs review = %v, %v", pending, err)
	}

	report, err := tracker.Report(ctx, store.snapshot.PageID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Locales) != 3 || report.Locales[2].Present {
		t.Fatalf("unexpected locales %+v", report.Locales)
	}
	fi := report.Locales[1]
	if fi.Locale != "fi" || !slices.Equal(fi.Failed, []string{"T1"}) {
		t.Fatalf("unexpected fi status %+v", fi)
	}
	states := map[string]translationstatus.State{}
	for _, n := range fi.Nodes {
		states[n.NodeID] = n.State
	}
	if states[nodes.RootID] != translationstatus.StateAuthored || states["S1"] != translationstatus.StateAuto || states["T1"] != translationstatus.StateFailed {
		t.Fatalf("unexpected node states %v", states)
	}
	en := report.Locales[0]
	for _, n := range en.Nodes {
		if n.NodeID == "T1" && n.State != translationstatus.StateSource {
			t.Fatalf("expected source state for en, got %s", n.State)
		}
	}
}

func TestTrackerMarkReviewedRetriesConflicts(t *testing.T) {
	store := newStore(t)
	store.conflicts = 2
	tracker := translationstatus.NewTracker(store, []string{"en", "fi"},
		translationstatus.WithConflictRetry(func(err error) bool { return errors.Is(err, errStale) }, 3, time.Millisecond),
	)

	version, err := tracker.MarkReviewed(context.Background(), store.snapshot.PageID, "T1", "fi")
	if err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}
	if version != store.snapshot.Version || store.saves != 1 {
		t.Fatalf("unexpected version %d (store %d, saves %d)", version, store.snapshot.Version, store.saves)
	}
	if !store.snapshot.Meta["T1"].ManuallyReviewed.Has("fi") {
		t.Fatalf("review not persisted: %+v", store.snapshot.Meta["T1"])
	}
}

func TestTrackerMarkReviewedWithoutRetrySurfacesConflict(t *testing.T) {
	store := newStore(t)
	store.conflicts = 1
	tracker := translationstatus.NewTracker(store, []string{"en", "fi"})
	if _, err := tracker.MarkReviewed(context.Background(), store.snapshot.PageID, "T1", "fi"); !errors.Is(err, errStale) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTrackerMarkReviewedDoesNotRetryDomainErrors(t *testing.T) {
	store := newStore(t)
	tracker := translationstatus.NewTracker(store, []string{"en", "fi"},
		translationstatus.WithConflictRetry(func(err error) bool { return errors.Is(err, errStale) }, 3, time.Millisecond),
	)
	_, err := tracker.MarkReviewed(context.Background(), store.snapshot.PageID, "T1", "sv")
	if !errors.Is(err, translationstatus.ErrNotAutoTranslated) {
		t.Fatalf("expected ErrNotAutoTranslated, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected no writes, got %d", store.saves)
	}
}
