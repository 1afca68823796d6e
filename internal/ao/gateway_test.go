package ao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticSigner struct {
	address string
}

func (s staticSigner) Address() string { return s.address }

func (s staticSigner) Sign(_ context.Context, payload []byte) ([]byte, error) {
	sum := byte(0)
	for _, b := range payload {
		sum ^= b
	}
	return []byte{sum}, nil
}

func TestGatewaySubmit(t *testing.T) {
	var received submitEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-123"})
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{MessengerURL: server.URL, ComputeURL: server.URL})
	id, err := gw.Submit(context.Background(), "proc-1", []Tag{
		{Name: "Action", Value: "Transfer"},
		{Name: "Recipient", Value: "addr"},
		{Name: "Quantity", Value: "100"},
	}, "", staticSigner{address: "owner-addr"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "msg-123" {
		t.Fatalf("expected gateway id, got %s", id)
	}
	if received.Owner != "owner-addr" || received.Target != "proc-1" {
		t.Fatalf("unexpected envelope: %+v", received)
	}
	if received.Signature == "" {
		t.Fatalf("expected signed envelope")
	}
	if got := TagValue(received.Tags, "Quantity"); got != "100" {
		t.Fatalf("expected Quantity tag, got %q", got)
	}
}

func TestGatewayDryRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dry-run" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("process-id") != "proc-2" {
			t.Fatalf("missing process-id query")
		}
		_ = json.NewEncoder(w).Encode(ReadResult{Messages: []Message{{
			Data: "42",
			Tags: []Tag{{Name: "Balance", Value: "42"}},
		}}})
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{MessengerURL: server.URL, ComputeURL: server.URL})
	result, err := gw.DryRun(context.Background(), "proc-2", []Tag{{Name: "Action", Value: "Balance"}}, "owner")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0].Data != "42" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGatewayFetchResultError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not ready", http.StatusNotFound)
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{MessengerURL: server.URL, ComputeURL: server.URL})
	if _, err := gw.FetchResult(context.Background(), "msg-x", "proc-3"); err == nil {
		t.Fatalf("expected error for missing result")
	}
}
