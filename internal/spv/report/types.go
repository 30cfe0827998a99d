package report

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Reporter receives every verification result exactly once.
	Reporter interface {
		Report(ctx context.Context, results ...model.VerificationResult) error
	}
	ResultSink interface {
		InsertVerificationResults(ctx context.Context, results []model.VerificationResult) error
	}
)
