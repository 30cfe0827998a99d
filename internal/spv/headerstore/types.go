package headerstore

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Backend persists accepted headers. HeaderByHash and TipHeader report a
	// miss with ok=false rather than an error.
	Backend interface {
		PutHeader(ctx context.Context, header model.BlockHeader) error
		HeaderByHash(ctx context.Context, hash string) (model.BlockHeader, bool, error)
		TipHeader(ctx context.Context) (model.BlockHeader, bool, error)
		Close() error
	}
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
