package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifestYAMLList(t *testing.T) {
	path := writeFile(t, "chunks.yaml", `
- chunk_id: c-1
  position: 0
  content: Channels are typed conduits.
- chunk_id: c-2
  position: 1.5
  content: Close a channel with close(ch).
`)
	chunks, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(chunks) != 2 || chunks[1].ChunkID != "c-2" || chunks[1].Position != 1.5 {
		t.Fatalf("chunks: %+v", chunks)
	}
}

func TestLoadManifestJSONObject(t *testing.T) {
	path := writeFile(t, "chunks.json", `{"chunks":[{"chunk_id":"a","position":3,"content":"x","embedding":[0.5,0.5]}]}`)
	chunks, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0].Embedding) != 2 || chunks[0].Embedding[0] != 0.5 {
		t.Fatalf("chunks: %+v", chunks)
	}
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	for name, body := range map[string]string{
		"empty.yaml":  "",
		"scalar.yaml": "just text",
		"broken.json": `{"chunks": [`,
	} {
		if _, err := LoadManifest(writeFile(t, name, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file: expected error")
	}
}

// fakeOpenAI embeds every input onto the first axis and answers with a fixed text.
type fakeOpenAI struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeOpenAI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			type item struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			}
			out := struct {
				Data []item `json:"data"`
			}{}
			for i := range req.Input {
				vec := make([]float64, vectors.Dimension)
				vec[0] = 1
				out.Data = append(out.Data, item{Index: i, Embedding: vec})
			}
			_ = json.NewEncoder(w).Encode(out)
		case "/v1/responses":
			var req struct {
				Input []struct {
					Content string `json:"content"`
				} `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.mu.Lock()
			for _, in := range req.Input {
				f.prompts = append(f.prompts, in.Content)
			}
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Use close(ch)."}]}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIngestThenAskAgainstSQLite(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "tutor.db"))
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "false")

	if out, err := run(t, "migrate"); err != nil || !strings.Contains(out, "migrated sqlite") {
		t.Fatalf("migrate: %v %s", err, out)
	}

	manifest := writeFile(t, "chunks.yaml", `
chunks:
  - chunk_id: go-101-0
    position: 0
    content: Close a channel with close(ch) from the sender side.
  - chunk_id: go-101-1
    position: 1
    content: Receiving from a closed channel yields the zero value.
`)
	out, err := run(t, "ingest", "--course", "go-101", "--file", manifest)
	if err != nil {
		t.Fatalf("ingest: %v %s", err, out)
	}
	var stats map[string]any
	if err := json.Unmarshal([]byte(out), &stats); err != nil || stats["inserted"] != float64(2) {
		t.Fatalf("ingest output: %v %s", err, out)
	}

	out, err = run(t, "ask", "--course", "go-101", "--user", "learner-1", "--title", "Go 101", "How", "do", "I", "close?")
	if err != nil {
		t.Fatalf("ask: %v %s", err, out)
	}
	if strings.TrimSpace(out) != "Use close(ch)." {
		t.Fatalf("answer: %q", out)
	}
	fake.mu.Lock()
	prompt := strings.Join(fake.prompts, "\n")
	fake.mu.Unlock()
	if !strings.Contains(prompt, "Close a channel with close(ch)") || !strings.Contains(prompt, "Learner question: How do I close?") {
		t.Fatalf("prompt missing context or question:\n%s", prompt)
	}

	out, err = run(t, "stats", "--course", "go-101")
	if err != nil {
		t.Fatalf("stats: %v %s", err, out)
	}
	var st struct {
		Chunks   int64            `json:"chunks"`
		Outcomes map[string]int64 `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil || st.Chunks != 2 || st.Outcomes["success"] != 1 {
		t.Fatalf("stats output: %v %s", err, out)
	}

	out, err = run(t, "usage", "--user", "learner-1")
	if err != nil {
		t.Fatalf("usage: %v %s", err, out)
	}
	var recs []map[string]any
	if err := json.Unmarshal([]byte(out), &recs); err != nil || len(recs) != 1 || recs[0]["outcome"] != "success" {
		t.Fatalf("usage output: %v %s", err, out)
	}
}

func TestAskRequiresCourseAndUser(t *testing.T) {
	t.Setenv("LOG_MODE", "test")
	if _, err := run(t, "ask", "hello"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("LOG_MODE", "test")
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	out, err := run(t, "token", "--user", "learner-9")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Fatalf("not a JWT: %q", out)
	}
}
