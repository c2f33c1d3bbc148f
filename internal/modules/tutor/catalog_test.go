package tutor

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	types "github.com/yungbote/ottolearn-tutor/internal/domain/course"
	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
)

type fakeLister struct {
	rows  []*types.CourseChunk
	count int64
	err   error
}

func (f *fakeLister) ListByCourse(dbctx.Context, string) ([]*types.CourseChunk, error) {
	return f.rows, f.err
}

func (f *fakeLister) CountByCourse(dbctx.Context, string) (int64, error) {
	return f.count, f.err
}

type fakeUsageReader struct {
	limit    int
	rows     []*types.RagUsageEvent
	outcomes map[string]int64
}

func (f *fakeUsageReader) ListByUser(_ dbctx.Context, _ string, limit int) ([]*types.RagUsageEvent, error) {
	f.limit = limit
	return f.rows, nil
}

func (f *fakeUsageReader) CountByOutcome(dbctx.Context, string) (map[string]int64, error) {
	return f.outcomes, nil
}

func TestCatalogCourseChunks(t *testing.T) {
	lister := &fakeLister{rows: []*types.CourseChunk{
		{ChunkID: "a", Position: 0, Content: "alpha"},
		nil,
		{ChunkID: "b", Position: 1, Content: "beta"},
	}}
	c := NewCatalog(testLogger(), lister, &fakeUsageReader{})

	out, err := c.CourseChunks(context.Background(), " c1 ")
	if err != nil {
		t.Fatalf("CourseChunks: %v", err)
	}
	if len(out) != 2 || out[1].ChunkID != "b" || out[1].Content != "beta" {
		t.Fatalf("chunks: %+v", out)
	}

	if _, err := c.CourseChunks(context.Background(), " "); !errors.Is(err, nberrors.ErrValidation) {
		t.Fatalf("blank course: %v", err)
	}
}

func TestCatalogCourseStats(t *testing.T) {
	c := NewCatalog(testLogger(),
		&fakeLister{count: 7},
		&fakeUsageReader{outcomes: map[string]int64{"success": 3, "fail": 1}},
	)
	st, err := c.CourseStats(context.Background(), "c1")
	if err != nil {
		t.Fatalf("CourseStats: %v", err)
	}
	if st.Chunks != 7 || st.Outcomes["success"] != 3 || st.CourseID != "c1" {
		t.Fatalf("stats: %+v", st)
	}
}

func TestCatalogBlankCourseIsReadValidation(t *testing.T) {
	c := NewCatalog(testLogger(), &fakeLister{}, &fakeUsageReader{})
	_, chunksErr := c.CourseChunks(context.Background(), "")
	_, statsErr := c.CourseStats(context.Background(), "  ")
	for _, err := range []error{chunksErr, statsErr} {
		if !errors.Is(err, ErrMissingCourse) || !errors.Is(err, nberrors.ErrValidation) {
			t.Fatalf("want missing course validation error, got %v", err)
		}
		var ie *chunkrepo.InvalidIngestionInputError
		if errors.As(err, &ie) {
			t.Fatalf("read path reported an ingestion error: %v", err)
		}
	}
}

func TestCatalogCourseStatsStoreError(t *testing.T) {
	storeFail := &chunkrepo.StoreError{Op: "count", Err: errors.New("down")}
	c := NewCatalog(testLogger(), &fakeLister{err: storeFail}, &fakeUsageReader{})
	if _, err := c.CourseStats(context.Background(), "c1"); !errors.Is(err, nberrors.ErrStore) {
		t.Fatalf("want store error, got %v", err)
	}
}

func TestCatalogRecentUsageDecodesMetadata(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := &fakeUsageReader{rows: []*types.RagUsageEvent{
		{CourseID: "c1", Outcome: "fail", Metadata: datatypes.JSON(`{"stage":"embedding"}`), OccurredAt: at},
		{CourseID: "c1", Outcome: "success", Metadata: datatypes.JSON(`not json`), OccurredAt: at},
	}}
	c := NewCatalog(testLogger(), &fakeLister{}, reader)

	out, err := c.RecentUsage(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("RecentUsage: %v", err)
	}
	if reader.limit != 5 || len(out) != 2 {
		t.Fatalf("limit=%d out=%+v", reader.limit, out)
	}
	if out[0].Metadata["stage"] != "embedding" || out[1].Metadata != nil {
		t.Fatalf("metadata: %+v", out)
	}
}
