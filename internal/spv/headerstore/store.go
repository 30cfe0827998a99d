// Package headerstore is the append-only local header chain: it assigns
// heights by position, enforces prev-hash linkage against the tip and feeds
// appended headers to subscribers.
package headerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

var (
	ErrNotFound        = errors.New("header not found")
	ErrEmpty           = errors.New("header store is empty")
	ErrNotConnected    = errors.New("header does not connect to tip")
	ErrAlreadyAnchored = errors.New("header store already anchored")
)

// Store owns the local header chain. All writes go through it.
type Store struct {
	mu      sync.Mutex
	backend Backend
	metrics Metrics
	feed    *feed
	tip     *model.BlockHeader
}

// New wraps a backend.
func New(backend Backend, metrics Metrics) *Store {
	return &Store{
		backend: backend,
		metrics: metrics,
		feed:    newFeed(),
	}
}

// Anchor stores the first header of an empty store at the given height.
func (s *Store) Anchor(ctx context.Context, h wire.BlockHeader, height uint32) (header model.BlockHeader, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("anchor", err, started)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.loadTip(ctx); err != nil {
		return model.BlockHeader{}, err
	} else if ok {
		return model.BlockHeader{}, ErrAlreadyAnchored
	}

	header = model.NewBlockHeader(h, height)
	if err = s.backend.PutHeader(ctx, header); err != nil {
		return model.BlockHeader{}, fmt.Errorf("put anchor %s: %w", header.Hash, err)
	}
	s.tip = &header
	s.feed.publish(header)
	return header, nil
}

// Append stores a header extending the tip, at tip height + 1.
func (s *Store) Append(ctx context.Context, h wire.BlockHeader) (header model.BlockHeader, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("append", err, started)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	tip, ok, err := s.loadTip(ctx)
	if err != nil {
		return model.BlockHeader{}, err
	}
	if !ok {
		return model.BlockHeader{}, ErrEmpty
	}
	if prev := h.PrevBlock.String(); prev != tip.Hash {
		return model.BlockHeader{}, fmt.Errorf("%w: %s has prev %s, tip is %s", ErrNotConnected, h.BlockHash(), prev, tip.Hash)
	}

	header = model.NewBlockHeader(h, tip.Height+1)
	if err = s.backend.PutHeader(ctx, header); err != nil {
		return model.BlockHeader{}, fmt.Errorf("put header %s: %w", header.Hash, err)
	}
	s.tip = &header
	s.feed.publish(header)
	return header, nil
}

// Tip returns the highest stored header.
func (s *Store) Tip(ctx context.Context) (tip model.BlockHeader, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("tip", err, started)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	tip, ok, err := s.loadTip(ctx)
	if err != nil {
		return model.BlockHeader{}, err
	}
	if !ok {
		return model.BlockHeader{}, ErrEmpty
	}
	return tip, nil
}

// HeaderByHash looks up a stored header.
func (s *Store) HeaderByHash(ctx context.Context, hash string) (header model.BlockHeader, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("header_by_hash", err, started)
	}()

	header, ok, err := s.backend.HeaderByHash(ctx, hash)
	if err != nil {
		return model.BlockHeader{}, fmt.Errorf("header %s: %w", hash, err)
	}
	if !ok {
		return model.BlockHeader{}, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return header, nil
}

// Subscribe returns a feed of headers appended from now on, in arrival order.
func (s *Store) Subscribe() *Subscription {
	return s.feed.subscribe()
}

// Close ends all subscriptions and closes the backend.
func (s *Store) Close() error {
	s.feed.close()
	return s.backend.Close()
}

func (s *Store) loadTip(ctx context.Context) (model.BlockHeader, bool, error) {
	if s.tip != nil {
		return *s.tip, true, nil
	}
	tip, ok, err := s.backend.TipHeader(ctx)
	if err != nil {
		return model.BlockHeader{}, false, fmt.Errorf("load tip: %w", err)
	}
	if ok {
		s.tip = &tip
	}
	return tip, ok, nil
}
