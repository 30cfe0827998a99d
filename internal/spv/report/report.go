// Package report delivers verification results to logs and storage.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/pkg/batcher"
	"go.uber.org/zap"
)

// LogReporter writes one Info line per result.
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(_ context.Context, results ...model.VerificationResult) error {
	for _, res := range results {
		fields := []zap.Field{
			zap.String("txid", res.TxID),
			zap.String("block_hash", res.BlockHash),
			zap.Uint32("block_height", res.BlockHeight),
			zap.String("merkle_root", string(res.MerkleRoot)),
			zap.Bool("verified", res.Verified()),
		}
		if res.WalletID != "" {
			fields = append(fields, zap.String("wallet_id", res.WalletID))
		}
		statuses := make([]string, len(res.Transactions))
		for i, tx := range res.Transactions {
			statuses[i] = string(tx.Status)
		}
		fields = append(fields, zap.Strings("transactions", statuses))
		r.logger.Info("verification result", fields...)
	}
	return nil
}

// RepositoryReporter buffers results and writes them to the sink in batches.
type RepositoryReporter struct {
	batcher *batcher.Batcher[model.VerificationResult]
}

// NewRepositoryReporter flushes every flushSize results or flushInterval,
// whichever comes first.
func NewRepositoryReporter(logger *zap.Logger, sink ResultSink, flushSize int, flushInterval time.Duration, rps int) *RepositoryReporter {
	return &RepositoryReporter{
		batcher: batcher.New(logger.Named("results"), sink.InsertVerificationResults, flushSize, flushInterval, rps),
	}
}

func (r *RepositoryReporter) Start(ctx context.Context) {
	r.batcher.Start(ctx)
}

// Stop flushes buffered results.
func (r *RepositoryReporter) Stop() {
	r.batcher.Stop()
}

func (r *RepositoryReporter) Report(ctx context.Context, results ...model.VerificationResult) error {
	for _, res := range results {
		if err := r.batcher.Add(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

// Multi fans a result out to every reporter and joins their errors.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, results ...model.VerificationResult) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, results...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
