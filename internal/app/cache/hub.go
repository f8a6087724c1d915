// Package cache is the local relational mirror of remote documents. Every
// write publishes a change notification so observers can re-read.
package cache

import (
	"sync"
)

const (
	topicReviews     = "reviews"
	topicRestaurants = "restaurants"
)

func userTopic(uid string) string {
	return "user:" + uid
}

func reviewTopic(id string) string {
	return "review:" + id
}

func restaurantTopic(id string) string {
	return "restaurant:" + id
}

// subscription receives at most one pending signal; further publishes while
// a signal is pending are merged into it.
type subscription struct {
	topic  string
	signal chan struct{}
}

// ChangeHub fans change notifications out to subscriptions by topic.
type ChangeHub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

func NewChangeHub() *ChangeHub {
	return &ChangeHub{subs: make(map[string]map[*subscription]struct{})}
}

func (h *ChangeHub) register(topic string) *subscription {
	sub := &subscription{topic: topic, signal: make(chan struct{}, 1)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[*subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

func (h *ChangeHub) unregister(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, sub.topic)
		}
	}
}

// Publish signals every subscription of the given topics without blocking.
func (h *ChangeHub) Publish(topics ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, topic := range topics {
		for sub := range h.subs[topic] {
			select {
			case sub.signal <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (h *ChangeHub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
