package headerstore

import (
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

// Subscription delivers appended headers. Each subscriber has its own
// unbounded buffer, so a slow reader never blocks the writer.
type Subscription struct {
	headers chan model.BlockHeader
	signal  chan struct{}
	quit    chan struct{}
	once    sync.Once
	remove  func(*Subscription)

	mu      sync.Mutex
	pending []model.BlockHeader
}

// Headers is closed after Cancel or when the store closes.
func (s *Subscription) Headers() <-chan model.BlockHeader {
	return s.headers
}

// Cancel stops delivery.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.quit)
		if s.remove != nil {
			s.remove(s)
		}
	})
}

func (s *Subscription) push(h model.BlockHeader) {
	s.mu.Lock()
	s.pending = append(s.pending, h)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.headers)
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, h := range batch {
			select {
			case s.headers <- h:
			case <-s.quit:
				return
			}
		}

		select {
		case <-s.signal:
		case <-s.quit:
			return
		}
	}
}

type feed struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func newFeed() *feed {
	return &feed{subs: make(map[*Subscription]struct{})}
}

func (f *feed) subscribe() *Subscription {
	sub := &Subscription{
		headers: make(chan model.BlockHeader),
		signal:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		remove:  f.unsubscribe,
	}
	go sub.run()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		sub.remove = nil
		sub.Cancel()
		return sub
	}
	f.subs[sub] = struct{}{}
	return sub
}

func (f *feed) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, sub)
}

func (f *feed) publish(h model.BlockHeader) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		sub.push(h)
	}
}

func (f *feed) close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[*Subscription]struct{})
	f.closed = true
	f.mu.Unlock()

	for sub := range subs {
		sub.Cancel()
	}
}
