package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику проекта.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	projectID := uuid.New()

	ch, unsubscribe := hub.Subscribe(projectID)
	defer unsubscribe()

	hub.Publish(projectID, Event{Type: EventSpendRecorded})

	select {
	case event := <-ch:
		if event.Type != EventSpendRecorded {
			t.Fatalf("expected event type %s, got %s", EventSpendRecorded, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubProjectIsolation проверяет, что события не уходят подписчикам
// другого проекта.
func TestHubProjectIsolation(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe(uuid.New())
	defer unsubscribe()

	hub.Publish(uuid.New(), Event{Type: EventReallocationApproved})

	select {
	case event := <-ch:
		t.Fatalf("unexpected event %s", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	projectID := uuid.New()

	ch, unsubscribe := hub.Subscribe(projectID)
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}
