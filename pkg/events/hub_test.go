package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nsforge/nstool/pkg/engine"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.clients == nil || hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Fatal("expected hub channels and maps to be initialized")
	}
}

func TestHubRunAndStop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after Stop")
	}
}

func TestClientSubscribe(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil)

	client.Subscribe(ChannelIterations)
	if !client.IsSubscribed(ChannelIterations) {
		t.Fatal("expected client to be subscribed to iterations")
	}
	if client.IsSubscribed(ChannelStatus) {
		t.Fatal("expected client not subscribed to status")
	}
}

func TestHubOnIterationBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := NewHandler(hub)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: EventTypeSubscribe, Channels: []string{ChannelIterations}}); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	var hubObserver engine.IterationObserver = hub
	hubObserver.OnIteration(engine.IterationRecord{Iteration: 3, Ecut: 1.2, Stepsize: 0.08, AcceptRate: 0.4, EMinLive: 0.01, EMaxLive: 1.5})

	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("expected iteration message, got error: %v", err)
	}
	if msg.Type != EventTypeIteration {
		t.Fatalf("expected iteration message type, got %q", msg.Type)
	}
}

func TestHubBroadcastStatusOnlyToStatusSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := NewHandler(hub)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	iterConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect iter client: %v", err)
	}
	defer iterConn.Close()

	statusConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect status client: %v", err)
	}
	defer statusConn.Close()

	time.Sleep(50 * time.Millisecond)

	if err := iterConn.WriteJSON(Message{Type: EventTypeSubscribe, Channels: []string{ChannelIterations}}); err != nil {
		t.Fatalf("subscribe iter: %v", err)
	}
	if err := statusConn.WriteJSON(Message{Type: EventTypeSubscribe, Channels: []string{ChannelStatus}}); err != nil {
		t.Fatalf("subscribe status: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastStatus("ok", 500, nil)

	statusConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var msg Message
	if err := statusConn.ReadJSON(&msg); err != nil {
		t.Fatalf("expected status message: %v", err)
	}
	if msg.Type != EventTypeStatus {
		t.Fatalf("expected status message type, got %q", msg.Type)
	}

	iterConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var other Message
	if err := iterConn.ReadJSON(&other); err == nil {
		t.Fatalf("iterations subscriber should not have received status broadcast, got %q", other.Type)
	}
}

func TestClientPingPong(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := NewHandler(hub)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteJSON(Message{Type: EventTypePing}); err != nil {
		t.Fatalf("failed to send ping: %v", err)
	}

	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("failed to read pong: %v", err)
	}
	if pong.Type != EventTypePong {
		t.Fatalf("expected pong, got %q", pong.Type)
	}
}

func TestClientReceivesErrorForInvalidJSON(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := NewHandler(hub)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("failed to send invalid message: %v", err)
	}

	var errMsg Message
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("expected error message: %v", err)
	}
	if errMsg.Type != EventTypeError {
		t.Fatalf("expected error type, got %q", errMsg.Type)
	}
}

func TestClientDisconnectDecrementsCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := NewHandler(hub)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after disconnect, got %d", hub.ClientCount())
	}
}
