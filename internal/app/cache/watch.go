package cache

import (
	"context"

	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// Watch streams fresh values of an observed query: the current value first,
// then one value after each change. A slow reader only sees the latest value.
// C is closed after Unsubscribe or when the observing context ends.
type Watch[T any] struct {
	C      <-chan T
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe stops the watch and waits until C is closed.
func (w *Watch[T]) Unsubscribe() {
	w.cancel()
	<-w.done
}

// Done is closed once the watch has stopped.
func (w *Watch[T]) Done() <-chan struct{} {
	return w.done
}

func observe[T any](parent context.Context, hub *ChangeHub, topic string, load func(context.Context) (T, error)) *Watch[T] {
	ctx, cancel := context.WithCancel(parent)
	sub := hub.register(topic)
	out := make(chan T, 1)
	w := &Watch[T]{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer func() {
			hub.unregister(sub)
			close(out)
			close(w.done)
		}()

		emit := func() bool {
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				logger.Warn("Cache observer failed to load", logger.Fields{
					"topic": topic,
					"error": err.Error(),
				})
				return true
			}
			return sendLatest(ctx, out, v)
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.signal:
				if !emit() {
					return
				}
			}
		}
	}()
	return w
}

// sendLatest puts v on out, replacing an unread older value.
func sendLatest[T any](ctx context.Context, out chan T, v T) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case out <- v:
			return true
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
