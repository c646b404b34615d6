package service

import "sync"

// Observers fans published values out to subscribers. Delivery is
// synchronous: Publish returns only after every subscriber has seen the
// value, and concurrent publishers are serialized, so subscribers observe
// values in publish order. Subscribers must not publish to the same
// Observers from inside their callback.
//
// The zero value is ready to use.
type Observers[T any] struct {
	deliver sync.Mutex
	mu      sync.Mutex
	nextID  int
	subs    []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observers[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, s := range o.subs {
				if s.id == id {
					o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber in subscription order.
func (o *Observers[T]) Publish(v T) {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	subs := o.subs
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}
