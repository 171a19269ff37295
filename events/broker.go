// Package events fans pipeline lifecycle events out to SSE clients.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Event names published by the gate service and scheduler.
const (
	RunStarted   = "run_started"
	RunFinished  = "run_finished"
	StepFinished = "step_finished"
)

// Broker manages SSE subscriptions and broadcasts events to them.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{clients: make(map[chan string]struct{})}
}

// Subscribe registers a new client and returns its channel. The channel is
// buffered; a client that falls behind misses events rather than blocking
// the publisher.
func (b *Broker) Subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// Publish sends an event to every subscribed client as a formatted SSE
// message.
func (b *Broker) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload: %v", err)
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- message:
		default:
			// client buffer full, skip
		}
	}
}
