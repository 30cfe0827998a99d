// Package transport exposes gRPC/HTTP handlers.
package transport

import (
	"context"
	"fmt"

	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/service/synchronizer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// SyncStatus is the synchronizer view the handler reports on.
type SyncStatus interface {
	State() synchronizer.State
	Pending() int
}

// StatusHandler implements ExplorerServiceServer health for the verifier.
type StatusHandler struct {
	blockinsight7000v1.UnimplementedExplorerServiceServer
	sync SyncStatus
}

// NewStatusHandler returns a StatusHandler instance.
func NewStatusHandler(sync SyncStatus) blockinsight7000v1.ExplorerServiceServer {
	return &StatusHandler{sync: sync}
}

// Health is healthy once the synchronizer listens for new blocks.
func (h *StatusHandler) Health(_ context.Context, _ *blockinsight7000v1.HealthRequest) (*blockinsight7000v1.HealthResponse, error) {
	state := h.sync.State()
	if state != synchronizer.StateListening {
		return nil, status.Errorf(codes.Unavailable, "synchronizer is %s", state)
	}
	return &blockinsight7000v1.HealthResponse{
		Status:      blockinsight7000v1.HealthStatus_HEALTH_STATUS_HEALTHY,
		Description: fmt.Sprintf("%s, %d pending", state, h.sync.Pending()),
	}, nil
}
