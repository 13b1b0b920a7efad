package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/mazecode/pkg/domain"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 64)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber, dropping it for slow ones.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message")
		}
	}
}

func (sm *StreamManager) publish(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "err", err)
		return
	}
	sm.Broadcast(string(data))
}

// Hooks returns lifecycle hooks that broadcast engine events as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart:     func(ctx context.Context, e *domain.RunEvent) { sm.publish(e) },
		OnMoveSettled:  func(ctx context.Context, e *domain.MoveEvent) { sm.publish(e) },
		OnBranchEnter:  func(ctx context.Context, e *domain.BranchEvent) { sm.publish(e) },
		OnBranchReturn: func(ctx context.Context, e *domain.BranchEvent) { sm.publish(e) },
		OnRunEnd:       func(ctx context.Context, e *domain.RunEvent) { sm.publish(e) },
	}
}
