package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	chunkrepo "github.com/yungbote/ottolearn-tutor/internal/data/repos/course"
	httpH "github.com/yungbote/ottolearn-tutor/internal/http/handlers"
	httpMW "github.com/yungbote/ottolearn-tutor/internal/http/middleware"
	"github.com/yungbote/ottolearn-tutor/internal/http/response"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
	"github.com/yungbote/ottolearn-tutor/internal/services"
)

type stubAssistant struct {
	got tutor.AskRequest
	res tutor.AskResult
	err error
}

func (s *stubAssistant) Ask(ctx context.Context, req tutor.AskRequest) (tutor.AskResult, error) {
	s.got = req
	return s.res, s.err
}

type stubIngest struct {
	courseID string
	chunks   []tutor.ChunkInput
	stats    chunkrepo.ReplaceStats
	err      error
}

func (s *stubIngest) Replace(ctx context.Context, courseID string, chunks []tutor.ChunkInput) (chunkrepo.ReplaceStats, error) {
	s.courseID = courseID
	s.chunks = chunks
	return s.stats, s.err
}

type stubCatalog struct {
	chunks []tutor.ChunkSummary
	stats  tutor.CourseStats
}

func (s *stubCatalog) CourseChunks(ctx context.Context, courseID string) ([]tutor.ChunkSummary, error) {
	return s.chunks, nil
}

func (s *stubCatalog) CourseStats(ctx context.Context, courseID string) (tutor.CourseStats, error) {
	st := s.stats
	st.CourseID = courseID
	return st, nil
}

type fixture struct {
	router    *gin.Engine
	assistant *stubAssistant
	ingest    *stubIngest
	catalog   *stubCatalog
	token     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := logger.New("test")
	auth, err := services.NewAuthService(log, "test-secret", "")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	tok, err := auth.IssueToken("learner-7", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	f := &fixture{
		assistant: &stubAssistant{res: tutor.AskResult{Answer: "Use close(ch)."}},
		ingest:    &stubIngest{stats: chunkrepo.ReplaceStats{Deleted: 2, Inserted: 3, Batches: []int{3}}},
		catalog: &stubCatalog{
			chunks: []tutor.ChunkSummary{{ChunkID: "a", Position: 0, Content: "x"}},
			stats:  tutor.CourseStats{Chunks: 1, Outcomes: map[string]int64{"success": 4}},
		},
		token: tok,
	}
	f.router = NewRouter(RouterConfig{
		Log:                log,
		RequestTimeout:     5 * time.Second,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:      httpH.NewHealthHandler(),
		CourseChunkHandler: httpH.NewCourseChunkHandler(log, f.ingest),
		AssistantHandler:   httpH.NewAssistantHandler(log, f.assistant),
		CatalogHandler:     httpH.NewCourseCatalogHandler(log, f.catalog),
	})
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return env.Error
}

func TestHealthcheck(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/healthcheck", "", false)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestAskRequiresAuth(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/courses/c1/assistant/ask", `{"question":"hi"}`, false)
	if w.Code != http.StatusUnauthorized || decodeError(t, w).Code != "unauthorized" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAskPassesRequestThrough(t *testing.T) {
	f := newFixture(t)
	body := `{"question":"How do I close?","course_title":"Go","summary":"s","persona_prompt":"p",
		"conversation":[{"role":"user","content":"hey"},{"role":"assistant","content":"hello"}]}`
	w := f.do(http.MethodPost, "/api/courses/course-9/assistant/ask", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res tutor.AskResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Answer != "Use close(ch)." {
		t.Fatalf("answer: %q", res.Answer)
	}
	got := f.assistant.got
	if got.CourseID != "course-9" || got.UserID != "learner-7" || got.CourseTitle != "Go" {
		t.Fatalf("request: %+v", got)
	}
	if len(got.Conversation) != 2 || got.Conversation[1].Role != "assistant" {
		t.Fatalf("conversation: %+v", got.Conversation)
	}
}

func TestAskRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/courses/c1/assistant/ask",
		`{"question":"q","conversation":[{"role":"system","content":"x"}]}`, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if f.assistant.got.Question != "" {
		t.Fatalf("service called for invalid role")
	}
}

func TestAskErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{tutor.ErrEmptyQuestion, http.StatusBadRequest, "empty_question"},
		{&tutor.ProviderError{Provider: tutor.ProviderEmbedding, Err: errors.New("down")}, http.StatusBadGateway, "embedding_provider_error"},
		{&tutor.ProviderError{Provider: tutor.ProviderGeneration, Err: errors.New("down")}, http.StatusBadGateway, "generation_provider_error"},
		{&chunkrepo.StoreError{Op: "query", Err: errors.New("x")}, http.StatusInternalServerError, "store_error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
	}
	for _, tc := range cases {
		f := newFixture(t)
		f.assistant.err = tc.err
		w := f.do(http.MethodPost, "/api/courses/c1/assistant/ask", `{"question":"q"}`, true)
		if w.Code != tc.status || decodeError(t, w).Code != tc.code {
			t.Fatalf("%v: status=%d body=%s", tc.err, w.Code, w.Body.String())
		}
	}
}

func TestReplaceChunks(t *testing.T) {
	f := newFixture(t)
	body := `{"chunks":[{"chunk_id":"a","position":0,"content":"x"},{"chunk_id":"b","position":1.7,"content":"y"}]}`
	w := f.do(http.MethodPut, "/api/courses/course-3/chunks", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if f.ingest.courseID != "course-3" || len(f.ingest.chunks) != 2 || f.ingest.chunks[1].Position != 1.7 {
		t.Fatalf("ingest call: %q %+v", f.ingest.courseID, f.ingest.chunks)
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["inserted"] != float64(3) || out["deleted"] != float64(2) {
		t.Fatalf("response: %v", out)
	}
}

func TestReplaceChunksValidationError(t *testing.T) {
	f := newFixture(t)
	f.ingest.err = &chunkrepo.InvalidIngestionInputError{Reason: "no chunks generated from course material"}
	w := f.do(http.MethodPut, "/api/courses/c1/chunks", `{"chunks":[]}`, true)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "invalid_input" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestReplaceChunksMalformedBody(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPut, "/api/courses/c1/chunks", `{"chunks":`, true)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "invalid_request" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListChunksAndStats(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/courses/course-3/chunks", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var list struct {
		Count  int                  `json:"count"`
		Chunks []tutor.ChunkSummary `json:"chunks"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 1 || list.Chunks[0].ChunkID != "a" {
		t.Fatalf("list: %+v", list)
	}

	w = f.do(http.MethodGet, "/api/courses/course-3/stats", "", true)
	var st tutor.CourseStats
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.CourseID != "course-3" || st.Outcomes["success"] != 4 {
		t.Fatalf("stats: %d %+v", w.Code, st)
	}
}
