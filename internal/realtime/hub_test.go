package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(id string) *Client {
	return &Client{id: id, send: make(chan WSMessage, 16)}
}

func drain(c *Client) []WSMessage {
	var out []WSMessage
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newTestClient("a")
	b := newTestClient("b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("approved_questions", []string{"q"})

	for _, c := range []*Client{a, b} {
		msgs := drain(c)
		if len(msgs) != 1 || msgs[0].Event != "approved_questions" {
			t.Fatalf("client %s: expected one approved_questions message, got %+v", c.id, msgs)
		}
	}
}

func TestModeratorScopeExcludesParticipants(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	participant := newTestClient("p")
	moderator := newTestClient("m")
	moderator.hub = hub
	hub.Register(participant)
	hub.Register(moderator)
	moderator.Promote()

	hub.BroadcastModerators("all_questions", []string{"q"})

	if msgs := drain(participant); len(msgs) != 0 {
		t.Fatalf("participant must not receive moderator-scoped events, got %+v", msgs)
	}
	if msgs := drain(moderator); len(msgs) != 1 || msgs[0].Event != "all_questions" {
		t.Fatalf("moderator should receive the event, got %+v", msgs)
	}
}

func TestPromoteIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := newTestClient("m")
	c.hub = hub
	hub.Register(c)

	c.Promote()
	c.Promote()
	if !c.IsModerator() {
		t.Fatalf("expected moderator after promote")
	}

	hub.BroadcastModerators("all_questions", "x")
	if msgs := drain(c); len(msgs) != 1 {
		t.Fatalf("double promotion must not duplicate delivery, got %d messages", len(msgs))
	}
}

func TestUnregisterRemovesModeratorMembership(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	c := newTestClient("m")
	c.hub = hub
	hub.Register(c)
	c.Promote()
	hub.Unregister(c)

	hub.BroadcastModerators("all_questions", "x")
	hub.Broadcast("approved_questions", "x")
	if msgs := drain(c); len(msgs) != 0 {
		t.Fatalf("disconnected client must not receive events, got %+v", msgs)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected empty hub, got %d clients", hub.ClientCount())
	}
}

func TestSendToClientTargetsOneConnection(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := newTestClient("a")
	b := newTestClient("b")
	hub.Register(a)
	hub.Register(b)

	hub.SendToClient("a", "export_data", map[string]int{"n": 1})

	msgs := drain(a)
	if len(msgs) != 1 || msgs[0].Event != "export_data" {
		t.Fatalf("target client should receive the event, got %+v", msgs)
	}
	var payload map[string]int
	if err := json.Unmarshal(msgs[0].Data, &payload); err != nil || payload["n"] != 1 {
		t.Fatalf("unexpected payload %s", msgs[0].Data)
	}
	if msgs := drain(b); len(msgs) != 0 {
		t.Fatalf("other clients must not receive targeted events, got %+v", msgs)
	}
}

// fakeBridge records published events, standing in for Redis.
type fakeBridge struct {
	published []struct {
		scope, event string
		payload      []byte
	}
	handler func(scope, event string, payload []byte)
}

func (f *fakeBridge) PublishEvent(scope, event string, payload []byte) error {
	f.published = append(f.published, struct {
		scope, event string
		payload      []byte
	}{scope, event, payload})
	if f.handler != nil {
		f.handler(scope, event, payload)
	}
	return nil
}

func (f *fakeBridge) SubscribeEvents(handler func(scope, event string, payload []byte)) (func(), error) {
	f.handler = handler
	return func() { f.handler = nil }, nil
}

func TestBridgeDeliversExactlyOnce(t *testing.T) {
	bridge := &fakeBridge{}
	hub := NewHub(zap.NewNop(), bridge)
	if err := hub.StartBridge(bridge); err != nil {
		t.Fatalf("start bridge: %v", err)
	}
	defer hub.StopBridge()

	c := newTestClient("a")
	hub.Register(c)
	hub.Broadcast("live_question", "q")

	if len(bridge.published) != 1 {
		t.Fatalf("expected one bridge publication, got %d", len(bridge.published))
	}
	if msgs := drain(c); len(msgs) != 1 {
		t.Fatalf("bridge echo must deliver exactly once locally, got %d messages", len(msgs))
	}
}
