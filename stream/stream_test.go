package stream

import (
	"context"
	"strings"
	"testing"
)

func TestNDJSONTransformCollect(t *testing.T) {
	ctx := context.Background()
	in := strings.NewReader("1\n2\n3\n")

	doubled := Collect(ctx, Transform(ctx, func(n int) int { return n * 2 },
		Filter(ctx, func(n int) bool { return n > 1 },
			NDJSON[int](ctx, in))))

	if len(doubled) != 2 || doubled[0] != 4 || doubled[1] != 6 {
		t.Fatalf("got %v, want [4 6]", doubled)
	}
}

func TestCollectRespectsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := Collect(ctx, Slice(context.Background(), []int{1, 2, 3}))
	if len(got) != 0 {
		t.Fatalf("canceled Collect returned %v", got)
	}
}
