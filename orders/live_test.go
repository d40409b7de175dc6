package orders

import (
	"encoding/json"
	"testing"
	"time"

	"kirana/models"
)

func TestHubNotifyReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &liveClient{send: make(chan []byte, 4)}
	hub.register <- c

	hub.Notify("order-created", &models.Order{
		OrderID:      "o1",
		OrderNumber:  "KR2506010001",
		Status:       models.OrderPending,
		Total:        230000,
		CustomerInfo: models.CustomerInfo{FullName: "Nguyen Van A"},
	})

	select {
	case raw := <-c.send:
		var ev liveEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if ev.Event != "order-created" || ev.OrderNumber != "KR2506010001" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Total != 230000 || ev.Customer != "Nguyen Van A" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for live event")
	}

	hub.unregister <- c
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &liveClient{send: make(chan []byte)} // no buffer, never read
	hub.register <- slow

	o := &models.Order{OrderID: "o1", OrderNumber: "KR2506010001"}
	hub.Notify("order-created", o)

	// A broadcast that cannot be delivered evicts the client.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("slow client was never evicted")
}
