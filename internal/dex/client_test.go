package dex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMinAmount(t *testing.T) {
	got, err := MinAmount("1000000", 50) // 0.5%
	if err != nil {
		t.Fatalf("min amount: %v", err)
	}
	if got != "995000" {
		t.Fatalf("expected 995000, got %s", got)
	}

	// 向下取整，不得高估可接受产出。
	got, err = MinAmount("999", 10)
	if err != nil {
		t.Fatalf("min amount: %v", err)
	}
	if got != "998" {
		t.Fatalf("expected floor to 998, got %s", got)
	}

	if _, err := MinAmount("not-a-number", 50); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestClientQuoteAndExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			_ = json.NewEncoder(w).Encode(Quote{
				BestRoute:       Route{"pool": "p1"},
				EstimatedOutput: "5000",
				InputAmount:     "100",
			})
		case "/swap":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["minOutput"] != "4975" {
				t.Fatalf("unexpected minOutput: %v", req["minOutput"])
			}
			_ = json.NewEncoder(w).Encode(ExecuteResult{MessageID: "swap-msg-1"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	quote, err := client.Quote(ctx, "from-pid", "to-pid", "100", "owner")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.EstimatedOutput != "5000" || quote.BestRoute == nil {
		t.Fatalf("unexpected quote: %+v", quote)
	}

	minOut, err := MinAmount(quote.EstimatedOutput, 50)
	if err != nil {
		t.Fatalf("min amount: %v", err)
	}
	result, err := client.Execute(ctx, quote.BestRoute, "from-pid", "to-pid", "100", minOut, "owner")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.MessageID != "swap-msg-1" {
		t.Fatalf("unexpected message id: %s", result.MessageID)
	}
}
