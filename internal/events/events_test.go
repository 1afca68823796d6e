package events

import (
	"context"
	"testing"
)

func TestNopPublisherSwallowsEverything(t *testing.T) {
	var p NopPublisher
	if err := p.Publish(context.Background(), Event{ID: "x", Kind: KindTransfer}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStampFillsOccurredAtOnce(t *testing.T) {
	event := Event{ID: "x", Kind: KindSwap}
	Stamp(&event)
	if event.OccurredAt == 0 {
		t.Fatalf("expected timestamp to be set")
	}

	event.OccurredAt = 42
	Stamp(&event)
	if event.OccurredAt != 42 {
		t.Fatalf("existing timestamp must not be overwritten")
	}
}
