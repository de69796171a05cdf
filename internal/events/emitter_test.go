package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEmitter implements Emitter for tests.
type mockEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
}

func (m *mockEmitter) Emit(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic.
	EmitAsync(nil, context.Background(), &Event{Type: TypeOTPRequested})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEmitter{}
	EmitAsync(emitter, context.Background(), nil)

	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	emitter := &mockEmitter{}
	EmitAsync(emitter, context.Background(), &Event{Type: TypeLoginSucceeded, UserID: "u1"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if events := emitter.getEvents(); len(events) == 1 {
			if events[0].Type != TypeLoginSucceeded || events[0].UserID != "u1" {
				t.Fatalf("event = %+v", events[0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("event was not delivered")
}

func TestEmitAsync_EmitterErrorIsSwallowed(t *testing.T) {
	emitter := &mockEmitter{emitErr: errors.New("broker down")}
	// Best-effort: an emit failure must never reach the caller.
	EmitAsync(emitter, context.Background(), &Event{Type: TypeOTPRequested})
	time.Sleep(10 * time.Millisecond)
}

func TestNewKafkaProducer_DisabledWhenUnconfigured(t *testing.T) {
	if p := NewKafkaProducer(nil, "notes-events"); p != nil {
		t.Error("producer should be nil without brokers")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("producer should be nil without a topic")
	}

	// A nil producer is safe to use everywhere.
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &Event{Type: TypeOTPRequested}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}
