package synchronizer

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/headerstore"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	DataSource interface {
		GetHeader(ctx context.Context, hash string) (*chain.RemoteHeader, error)
		GetHeaders(ctx context.Context, fromHash string, limit int) ([]chain.RemoteHeader, error)
	}
	HeaderStore interface {
		Anchor(ctx context.Context, h wire.BlockHeader, height uint32) (model.BlockHeader, error)
		Append(ctx context.Context, h wire.BlockHeader) (model.BlockHeader, error)
		Tip(ctx context.Context) (model.BlockHeader, error)
		HeaderByHash(ctx context.Context, hash string) (model.BlockHeader, error)
		Subscribe() *headerstore.Subscription
	}
	Verifier interface {
		Verify(ctx context.Context, p model.PendingVerification) (model.VerificationResult, error)
	}
	Reporter interface {
		Report(ctx context.Context, results ...model.VerificationResult) error
	}
	Metrics interface {
		ObserveBackfillBatch(err error, headers int, started time.Time)
		ObserveFollow(err error, appended int)
		SetState(state string)
		SetTipHeight(height uint32)
		SetQueueLength(n int)
	}
)
