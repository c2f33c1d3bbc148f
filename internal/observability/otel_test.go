package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , bad, =x, team=tutor ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "tutor" {
		t.Fatalf("headers: %v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestClampRatio(t *testing.T) {
	if clampRatio(-1) != 0 || clampRatio(2) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clampRatio out of range")
	}
}

func TestSpanHelpersWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	EndSpan(span, errors.New("boom"))
	if TraceID(ctx) != "" {
		t.Fatalf("no-op provider should not produce trace ids")
	}
}
