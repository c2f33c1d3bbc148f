package tutor

import (
	"context"
	"sync"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

func testLogger() *logger.Logger {
	log, _ := logger.New("test")
	return log
}

func unitVector() []float32 {
	v := make([]float32, vectors.Dimension)
	v[0] = 1
	return v
}

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	inputs []string
	vec    []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return unitVector(), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = unitVector()
	}
	return out, nil
}

type fakeGenerator struct {
	calls   int
	prompts []string
	answer  string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeFetcher struct {
	calls    int
	courseID string
	contexts []QueryContext
	err      error
}

func (f *fakeFetcher) FetchRelevantContexts(ctx context.Context, courseID string, q []float32) ([]QueryContext, error) {
	f.calls++
	f.courseID = courseID
	if f.err != nil {
		return nil, f.err
	}
	return f.contexts, nil
}

type recordingUsage struct {
	mu     sync.Mutex
	events []UsageEvent
}

func (r *recordingUsage) Log(ev UsageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type panickingUsage struct{}

func (panickingUsage) Log(UsageEvent) { panic("sink exploded") }

type fakeSearcher struct {
	limit int
	hits  []chunkrepo.ScoredChunk
	err   error
}

func (f *fakeSearcher) NearestByCourse(dbc dbctx.Context, courseID string, q []float32, limit int) ([]chunkrepo.ScoredChunk, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeReplacer struct {
	calls    int
	courseID string
	records  []chunkrepo.ChunkRecord
	err      error
}

func (f *fakeReplacer) ReplaceCourseChunks(dbc dbctx.Context, courseID string, chunks []chunkrepo.ChunkRecord) (chunkrepo.ReplaceStats, error) {
	f.calls++
	f.courseID = courseID
	f.records = chunks
	if f.err != nil {
		return chunkrepo.ReplaceStats{}, f.err
	}
	return chunkrepo.ReplaceStats{Inserted: len(chunks), Batches: []int{len(chunks)}}, nil
}
