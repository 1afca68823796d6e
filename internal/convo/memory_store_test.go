package convo

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestWindowCapAfterManyAppends(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		turn := Turn{Role: RoleUser, Content: fmt.Sprintf("turn-%d", i)}
		if err := store.Append(ctx, "u1", turn); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	window, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(window) != WindowCap {
		t.Fatalf("expected window of %d, got %d", WindowCap, len(window))
	}
	// 保留的是最近 20 轮，顺序不变。
	if window[0].Content != "turn-5" || window[len(window)-1].Content != "turn-24" {
		t.Fatalf("unexpected window bounds: %s .. %s",
			window[0].Content, window[len(window)-1].Content)
	}
}

func TestClearRemovesWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Append(ctx, "u1", Turn{Role: RoleUser, Content: "hello"})
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	window, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(window) != 0 {
		t.Fatalf("expected empty window, got %d turns", len(window))
	}
}

func TestWindowsAreIsolatedPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Append(ctx, "u1", Turn{Role: RoleUser, Content: "from u1"})
	_ = store.Append(ctx, "u2", Turn{Role: RoleUser, Content: "from u2"})

	w1, _ := store.Get(ctx, "u1")
	if len(w1) != 1 || w1[0].Content != "from u1" {
		t.Fatalf("unexpected window for u1: %+v", w1)
	}
}

func TestTTLExpiry(t *testing.T) {
	store := NewMemoryStore(WithTTL(10 * time.Millisecond))
	ctx := context.Background()

	_ = store.Append(ctx, "u1", Turn{Role: RoleUser, Content: "stale"})
	time.Sleep(25 * time.Millisecond)

	window, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(window) != 0 {
		t.Fatalf("expected expired window, got %d turns", len(window))
	}
}

func TestRecent(t *testing.T) {
	window := make([]Turn, 0, 15)
	for i := 0; i < 15; i++ {
		window = append(window, Turn{Content: fmt.Sprintf("t%d", i)})
	}
	recent := Recent(window, AgentContextSize)
	if len(recent) != AgentContextSize {
		t.Fatalf("expected %d turns, got %d", AgentContextSize, len(recent))
	}
	if recent[0].Content != "t5" {
		t.Fatalf("expected recent window to start at t5, got %s", recent[0].Content)
	}
	if got := Recent(window[:3], AgentContextSize); len(got) != 3 {
		t.Fatalf("short window should be returned whole, got %d", len(got))
	}
}
