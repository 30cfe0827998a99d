// Package synchronizer backfills the local header chain from a checkpoint,
// follows new blocks and verifies queued transactions once their block is stored.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/headerstore"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/queue"
	"go.uber.org/zap"
)

// Config tunes backfill and follow behavior. Zero values take defaults.
type Config struct {
	Checkpoints []model.Checkpoint
	// StopHash ends backfill at this header; following is disabled once it
	// is stored, including when a resumed store is already past it.
	StopHash     string
	BatchSize    int
	MaxRetries   int
	Backoff      clock.Backoff
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	c.StopHash = strings.ToLower(c.StopHash)
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff = clock.Backoff{Initial: defaultBackoffInitial, Max: defaultBackoffMax}
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Synchronizer owns the verification queue and is its only consumer. Run is
// the single worker: verifications never overlap.
type Synchronizer struct {
	logger   *zap.Logger
	source   DataSource
	store    HeaderStore
	verifier Verifier
	reporter Reporter
	trust    chain.HeaderTrustPolicy
	metrics  Metrics
	cfg      Config

	queue       *queue.Queue
	state       atomic.Int32
	wake        chan struct{}
	blockSignal <-chan struct{}
	sleep       func(context.Context, time.Duration) error
}

func New(
	source DataSource,
	store HeaderStore,
	verifier Verifier,
	reporter Reporter,
	trust chain.HeaderTrustPolicy,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
	blockSignal <-chan struct{},
) (*Synchronizer, error) {
	if len(cfg.Checkpoints) == 0 {
		return nil, errors.New("at least one checkpoint is required")
	}
	if metrics == nil {
		return nil, errors.New("synchronizer metrics is required")
	}
	if trust == nil {
		trust = chain.CheckpointTrustPolicy{}
	}
	s := &Synchronizer{
		logger:      logger,
		source:      source,
		store:       store,
		verifier:    verifier,
		reporter:    reporter,
		trust:       trust,
		metrics:     metrics,
		cfg:         cfg.withDefaults(),
		queue:       queue.New(),
		wake:        make(chan struct{}, 1),
		blockSignal: blockSignal,
		sleep:       clock.SleepWithContext,
	}
	s.metrics.SetState(StateUninitialized.String())
	return s, nil
}

// State returns the current lifecycle stage.
func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

// Pending returns the number of queued verifications.
func (s *Synchronizer) Pending() int {
	return s.queue.Len()
}

func (s *Synchronizer) setState(state State) {
	if State(s.state.Swap(int32(state))) == state {
		return
	}
	s.metrics.SetState(state.String())
	s.logger.Info("synchronizer state changed", zap.Stringer("state", state))
}

// Report queues caller-reported transactions. The first report starts
// backfill; later ones are verified as soon as their block is stored.
func (s *Synchronizer) Report(entries ...model.PendingVerification) {
	if len(entries) == 0 {
		return
	}
	s.queue.Enqueue(entries...)
	s.metrics.SetQueueLength(s.queue.Len())
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SelectStart returns the highest checkpoint at or below the lowest pending
// block height. It reports false when nothing is pending.
func (s *Synchronizer) SelectStart(pending []model.PendingVerification) (model.Checkpoint, bool) {
	if len(pending) == 0 {
		return model.Checkpoint{}, false
	}
	minHeight := pending[0].BlockHeight
	for _, p := range pending[1:] {
		if p.BlockHeight < minHeight {
			minHeight = p.BlockHeight
		}
	}
	return chain.SelectCheckpoint(s.cfg.Checkpoints, minHeight)
}

// Run waits for the first report, backfills, then listens until ctx ends.
func (s *Synchronizer) Run(ctx context.Context) error {
	defer s.setState(StateStopped)

	for s.queue.Len() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}

	s.setState(StateBackfilling)
	tip, err := s.anchor(ctx)
	if err != nil {
		return err
	}
	s.metrics.SetTipHeight(tip.Height)

	if _, err := s.Sync(ctx, tip.Hash, s.cfg.StopHash); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("backfill ended early, following from stored tip", zap.Error(err))
	}

	sub := s.store.Subscribe()
	defer sub.Cancel()
	s.setState(StateListening)

	if tip, err = s.store.Tip(ctx); err != nil {
		return fmt.Errorf("load tip: %w", err)
	}
	s.metrics.SetTipHeight(tip.Height)
	if err := s.drain(ctx, tip.Height); err != nil {
		return err
	}

	var poll <-chan time.Time
	if s.cfg.PollInterval > 0 {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h, ok := <-sub.Headers():
			if !ok {
				return errors.New("header feed closed")
			}
			if h.Height > tip.Height {
				tip = h
				s.metrics.SetTipHeight(tip.Height)
			}
			err = s.drain(ctx, h.Height)
		case <-s.wake:
			err = s.drain(ctx, tip.Height)
		case <-poll:
			s.follow(ctx)
		case <-s.blockSignal:
			s.follow(ctx)
		}
		if err != nil {
			return err
		}
	}
}

// anchor resumes from the stored tip or anchors an empty store at the
// checkpoint selected for the current queue.
func (s *Synchronizer) anchor(ctx context.Context) (model.BlockHeader, error) {
	tip, err := s.store.Tip(ctx)
	if err == nil {
		s.logger.Info("resuming from stored tip", zap.String("hash", tip.Hash), zap.Uint32("height", tip.Height))
		return tip, nil
	}
	if !errors.Is(err, headerstore.ErrEmpty) {
		return model.BlockHeader{}, fmt.Errorf("load tip: %w", err)
	}

	cp, ok := s.SelectStart(s.queue.Snapshot())
	if !ok {
		return model.BlockHeader{}, errors.New("no checkpoint below the pending block heights")
	}

	var header wire.BlockHeader
	if cp.Header != nil {
		header = *cp.Header
	} else {
		remote, err := retry(ctx, s, cp.Hash, func(ctx context.Context) (*chain.RemoteHeader, error) {
			return s.source.GetHeader(ctx, cp.Hash)
		})
		if err != nil {
			return model.BlockHeader{}, fmt.Errorf("fetch checkpoint %d: %w", cp.Height, err)
		}
		if header, err = remote.BlockHeader(); err != nil {
			return model.BlockHeader{}, err
		}
	}
	if err := s.trust.TrustAnchor(cp, header); err != nil {
		return model.BlockHeader{}, err
	}

	tip, err = s.store.Anchor(ctx, header, cp.Height)
	if err != nil {
		return model.BlockHeader{}, err
	}
	s.logger.Info("anchored at checkpoint", zap.String("hash", tip.Hash), zap.Uint32("height", tip.Height))
	return tip, nil
}

// Sync appends the successors of startHash until the data source reports no
// next header or the cursor reaches stopHash. Nothing is fetched when
// stopHash is already stored. It returns how many headers were appended.
func (s *Synchronizer) Sync(ctx context.Context, startHash, stopHash string) (int, error) {
	stopHash = strings.ToLower(stopHash)
	reached, err := s.stopReached(ctx, stopHash)
	if err != nil {
		return 0, err
	}
	tip, err := s.store.Tip(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tip: %w", err)
	}
	if reached {
		if tip.Hash != stopHash {
			s.logger.Info("stored tip is past the stop hash",
				zap.String("stop_hash", stopHash),
				zap.String("tip", tip.Hash),
				zap.Uint32("height", tip.Height),
			)
		}
		return 0, nil
	}

	appended := 0
	cursor := startHash
	for stopHash == "" || cursor != stopHash {
		started := time.Now()
		batch, err := retry(ctx, s, cursor, func(ctx context.Context) ([]chain.RemoteHeader, error) {
			return s.source.GetHeaders(ctx, cursor, s.cfg.BatchSize)
		})
		if err != nil {
			return appended, err
		}
		if len(batch) == 0 {
			return appended, nil
		}

		n := 0
		for _, remote := range batch {
			tip, err = s.extend(ctx, tip, remote)
			if err != nil {
				s.metrics.ObserveBackfillBatch(err, n, started)
				return appended, err
			}
			n++
			appended++
			cursor = tip.Hash
			if stopHash != "" && cursor == stopHash {
				break
			}
		}
		s.metrics.ObserveBackfillBatch(nil, n, started)
		s.logger.Debug("header batch appended",
			zap.Int("headers", n),
			zap.String("tip", tip.Hash),
			zap.Uint32("height", tip.Height),
		)
		if batch[len(batch)-1].NextHash == "" {
			return appended, nil
		}
	}
	return appended, nil
}

// stopReached reports whether stopHash is already in the store. The store
// holds one linear chain, so a stored stop header is at or below the tip.
func (s *Synchronizer) stopReached(ctx context.Context, stopHash string) (bool, error) {
	if stopHash == "" {
		return false, nil
	}
	_, err := s.store.HeaderByHash(ctx, stopHash)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, headerstore.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load stop header: %w", err)
	}
}

func (s *Synchronizer) extend(ctx context.Context, tip model.BlockHeader, remote chain.RemoteHeader) (model.BlockHeader, error) {
	header, err := remote.BlockHeader()
	if err != nil {
		return tip, err
	}
	if err := s.trust.TrustExtension(tip, header); err != nil {
		return tip, err
	}
	return s.store.Append(ctx, header)
}

// retry repeats fn on data source failures with exponential backoff.
func retry[T any](ctx context.Context, s *Synchronizer, cursor string, fn func(context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		started := time.Now()
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		var ae *chain.AdapterError
		if !errors.As(err, &ae) || attempt >= s.cfg.MaxRetries {
			return v, err
		}
		s.metrics.ObserveBackfillBatch(err, 0, started)
		delay := s.cfg.Backoff.Delay(attempt)
		s.logger.Warn("data source request failed, retrying",
			zap.String("cursor", cursor),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return v, sleepErr
		}
	}
}

// follow extends the chain past the current tip.
func (s *Synchronizer) follow(ctx context.Context) {
	tip, err := s.store.Tip(ctx)
	if err != nil {
		s.metrics.ObserveFollow(err, 0)
		s.logger.Warn("follow: load tip failed", zap.Error(err))
		return
	}
	reached, err := s.stopReached(ctx, s.cfg.StopHash)
	if err != nil {
		s.metrics.ObserveFollow(err, 0)
		s.logger.Warn("follow: load stop header failed", zap.Error(err))
		return
	}
	if reached {
		return
	}
	n, err := s.Sync(ctx, tip.Hash, s.cfg.StopHash)
	s.metrics.ObserveFollow(err, n)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("follow failed", zap.String("tip", tip.Hash), zap.Int("appended", n), zap.Error(err))
	}
}

// drain verifies every queued entry whose block height is at most height,
// lowest first. Each entry is removed exactly once, whatever the outcome.
func (s *Synchronizer) drain(ctx context.Context, height uint32) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, ok := s.queue.DequeueUpTo(height)
		if !ok {
			return nil
		}
		s.metrics.SetQueueLength(s.queue.Len())
		s.process(ctx, p)
	}
}

func (s *Synchronizer) process(ctx context.Context, p model.PendingVerification) {
	logger := s.logger.With(zap.String("txid", p.TxID), zap.Uint32("block_height", p.BlockHeight))

	result, err := s.verifier.Verify(ctx, p)
	if err != nil {
		logger.Warn("verification failed", zap.Error(err))
	}
	if err := s.reporter.Report(ctx, result); err != nil {
		logger.Error("report verification result failed", zap.Error(err))
	}
}
