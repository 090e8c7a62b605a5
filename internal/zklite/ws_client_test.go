package zklite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSFeed_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed, err := NewWSFeed(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	if feed.closed.Load() {
		t.Error("feed should not be closed")
	}
}

func TestWSFeed_SubscribeAndReceive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal subscribe: %v", err)
			return
		}
		if req.Op != "subscribe" {
			t.Errorf("expected op subscribe, got %s", req.Op)
		}
		if req.Address != "0xalice" {
			t.Errorf("expected address 0xalice, got %s", req.Address)
		}

		notif := feedMessage{
			Address: "0xalice",
			Tx: RawTransaction{
				TxHash:      "0x" + strings.Repeat("ab", 32),
				BlockNumber: 4021,
				CreatedAt:   "2022-04-05T13:10:42Z",
				Op:          RawOp{Type: "Deposit", From: "0xbridge", To: "0xalice", Token: "ETH", Amount: "1"},
			},
		}
		if err := conn.WriteJSON(notif); err != nil {
			t.Errorf("write notification: %v", err)
			return
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed, err := NewWSFeed(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	ch, err := feed.SubscribeAccount(context.Background(), "0xalice")
	if err != nil {
		t.Fatalf("SubscribeAccount: %v", err)
	}

	select {
	case raw := <-ch:
		if raw.Op.Type != "Deposit" {
			t.Errorf("expected Deposit, got %s", raw.Op.Type)
		}
		if raw.TxHash != "0x"+strings.Repeat("ab", 32) {
			t.Errorf("unexpected hash %s", raw.TxHash)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed record")
	}
}

// Records for addresses nobody subscribed to are dropped, not delivered.
func TestWSFeed_UnsubscribedAddressIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		for _, address := range []string{"0xstranger", "0xalice"} {
			notif := feedMessage{
				Address: address,
				Tx: RawTransaction{
					TxHash:    "0x" + strings.Repeat("cd", 32),
					CreatedAt: "2022-04-05T13:10:42Z",
					Op:        RawOp{Type: "Deposit", From: "0xbridge", To: address, Token: "ETH", Amount: "1"},
				},
			}
			if err := conn.WriteJSON(notif); err != nil {
				return
			}
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed, err := NewWSFeed(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	ch, err := feed.SubscribeAccount(context.Background(), "0xalice")
	if err != nil {
		t.Fatalf("SubscribeAccount: %v", err)
	}

	select {
	case raw := <-ch:
		if raw.Op.To != "0xalice" {
			t.Errorf("received record for wrong address: %s", raw.Op.To)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed record")
	}
}

func TestWSFeed_SubscribeAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed, err := NewWSFeed(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := feed.SubscribeAccount(context.Background(), "0xalice"); err == nil {
		t.Error("expected subscribe on closed feed to fail")
	}
}
