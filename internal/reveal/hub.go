package reveal

import "sync"

// Source is anything that publishes revealed prefixes.
type Source interface {
	Subscribe(fn func(Snapshot)) (unsubscribe func())
	OnComplete(fn func(Snapshot)) (unsubscribe func())
	Snapshot() Snapshot
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// hub holds prefix and completion observers in registration order.
type hub struct {
	mu       sync.Mutex
	nextID   int
	prefix   []subscriber
	complete []subscriber
}

func (h *hub) add(list *[]subscriber, fn func(Snapshot)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	*list = append(*list, subscriber{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range *list {
			if s.id == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func (h *hub) subscribe(fn func(Snapshot)) func() {
	return h.add(&h.prefix, fn)
}

func (h *hub) onComplete(fn func(Snapshot)) func() {
	return h.add(&h.complete, fn)
}

func (h *hub) notify(s Snapshot) {
	h.deliver(&h.prefix, s)
}

func (h *hub) completed(s Snapshot) {
	h.deliver(&h.complete, s)
}

// deliver calls a copy of the list so observers may unsubscribe while being
// notified.
func (h *hub) deliver(list *[]subscriber, s Snapshot) {
	h.mu.Lock()
	subs := append([]subscriber(nil), *list...)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.fn(s)
	}
}
