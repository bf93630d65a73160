package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"songmesh/internal/dataType"

	"go.uber.org/zap"
)

type testTransport struct {
	transport *HTTPTransport
	events    chan Event
	ts        *httptest.Server
}

func newTestTransport(t *testing.T, name string) *testTransport {
	t.Helper()
	events := make(chan Event, 16)
	tr := NewHTTPTransport(testConfig(name), zap.NewNop(), events, "http://"+name+".test")
	ts := httptest.NewServer(tr.Router())
	t.Cleanup(ts.Close)
	return &testTransport{transport: tr, events: events, ts: ts}
}

func drainEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	default:
		t.Fatalf("expected an event in the mailbox")
		return Event{}
	}
}

func TestJoinHandshake(t *testing.T) {
	a := newTestTransport(t, "node-a")
	b := newTestTransport(t, "node-b")

	if err := a.transport.Join(b.ts.URL); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// b learned a's identity from the request and got a PeerJoined event.
	ev := drainEvent(t, b.events)
	if ev.Kind != PeerJoined || ev.PeerID != "node-a" {
		t.Errorf("b event = %+v, want PeerJoined node-a", ev)
	}
	b.transport.mu.RLock()
	if b.transport.addrs["node-a"] != "http://node-a.test" {
		t.Errorf("b registered a at %q", b.transport.addrs["node-a"])
	}
	b.transport.mu.RUnlock()

	// a learned b's identity from the response.
	ev = drainEvent(t, a.events)
	if ev.Kind != PeerJoined || ev.PeerID != "node-b" {
		t.Errorf("a event = %+v, want PeerJoined node-b", ev)
	}
	a.transport.mu.RLock()
	if a.transport.addrs["node-b"] != b.ts.URL {
		t.Errorf("a registered b at %q, want %q", a.transport.addrs["node-b"], b.ts.URL)
	}
	a.transport.mu.RUnlock()
}

func TestHandleGossipRouting(t *testing.T) {
	a := newTestTransport(t, "node-a")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantEvent  bool
		wantKind   EventKind
	}{
		{
			name:       "catalog announce",
			body:       `{"type":"CATALOG_ANNOUNCE","origin_node":"node-b","seq":1,"content":"[]"}`,
			wantStatus: http.StatusOK,
			wantEvent:  true,
			wantKind:   CatalogReceived,
		},
		{
			name:       "chat",
			body:       `{"type":"CHAT","id":"n1","origin_node":"node-b","content":"{\"text\":\"hi\"}"}`,
			wantStatus: http.StatusOK,
			wantEvent:  true,
			wantKind:   ChatReceived,
		},
		{
			name:       "malformed json",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing origin",
			body:       `{"type":"CHAT","content":"{}"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown type acked and dropped",
			body:       `{"type":"FUTURE_THING","origin_node":"node-b"}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(a.ts.URL+"/mesh/gossip", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantEvent {
				ev := drainEvent(t, a.events)
				if ev.Kind != tt.wantKind || ev.PeerID != "node-b" {
					t.Errorf("event = %+v, want kind %d from node-b", ev, tt.wantKind)
				}
			} else if len(a.events) != 0 {
				t.Errorf("unexpected event emitted: %+v", <-a.events)
			}
		})
	}
}

func TestHandleLeave(t *testing.T) {
	a := newTestTransport(t, "node-a")
	a.transport.register("node-b", "http://node-b.test")

	body, _ := json.Marshal(PeerIdentity{NodeName: "node-b"})
	resp, err := http.Post(a.ts.URL+"/mesh/leave", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	ev := drainEvent(t, a.events)
	if ev.Kind != PeerLeft || ev.PeerID != "node-b" {
		t.Errorf("event = %+v, want PeerLeft node-b", ev)
	}
	a.transport.mu.RLock()
	_, still := a.transport.addrs["node-b"]
	a.transport.mu.RUnlock()
	if still {
		t.Errorf("departed peer still registered")
	}
}

func TestHealthCheck(t *testing.T) {
	a := newTestTransport(t, "node-a")

	resp, err := http.Get(a.ts.URL + "/mesh/health_check")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestBroadcastBestEffort(t *testing.T) {
	a := newTestTransport(t, "node-a")
	// One reachable peer, one dead address. Broadcast must not fail.
	b := newTestTransport(t, "node-b")
	a.transport.register("node-b", b.ts.URL)
	a.transport.register("node-dead", "http://127.0.0.1:1")

	a.transport.Broadcast(dataType.GossipMessage{
		Type:       dataType.GossipTypeChat,
		ID:         "n1",
		OriginNode: "node-a",
		Content:    `{"text":"hi"}`,
	})

	// The reachable peer eventually gets the envelope.
	deadline := make(chan struct{})
	go func() {
		ev := <-b.events
		if ev.Kind == ChatReceived && ev.Envelope.ID == "n1" {
			close(deadline)
		}
	}()
	select {
	case <-deadline:
	case <-time.After(3 * time.Second):
		t.Fatalf("reachable peer never received the broadcast")
	}
}
