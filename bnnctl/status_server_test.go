package bnnctl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStatusEndpoint(t *testing.T) {
	hub := NewStatusHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 before any status, got %d", resp.StatusCode)
	}

	hub.Publish(StatusMessage{Cycle: 42, State: "IDLE"})
	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got StatusMessage
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Cycle != 42 || got.State != "IDLE" {
		t.Errorf("Unexpected status %+v", got)
	}
}

func TestStatusWebsocket(t *testing.T) {
	hub := NewStatusHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(StatusMessage{State: "ACCEL_BUSY", Status: StatusAccelBusy})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got StatusMessage
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.State != "ACCEL_BUSY" || got.Status != StatusAccelBusy {
		t.Errorf("Unexpected status %+v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
