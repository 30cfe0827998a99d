package verifier

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	DataSource interface {
		GetFilteredBlockTransactions(ctx context.Context, blockHash, txid string) (*chain.BlockTransactions, error)
		GetRawTransaction(ctx context.Context, txid string) (*chain.RawTransaction, error)
	}
	HeaderStore interface {
		HeaderByHash(ctx context.Context, hash string) (model.BlockHeader, error)
	}
	Metrics interface {
		ObserveVerification(result model.VerificationResult, err error, started time.Time)
	}
)
