package ports

import (
	"context"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// SecurityEventRepository persists audit records.
type SecurityEventRepository interface {
	Insert(ctx context.Context, event *domain.SecurityEvent) error
}

// SecurityEventSink accepts events without blocking the request path; the
// queue dispatcher is the production implementation.
type SecurityEventSink interface {
	Record(event domain.SecurityEvent)
}
