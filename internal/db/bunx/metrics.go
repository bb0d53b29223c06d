package bunx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/authgate/internal/telemetry"
)

// MetricsHook is a bun.QueryHook that records every query on DatabaseMetrics.
// sql.ErrNoRows is a lookup miss, not a failure, and is not counted as an error.
type MetricsHook struct {
	metrics *telemetry.DatabaseMetrics
}

var _ bun.QueryHook = (*MetricsHook)(nil)

// NewMetricsHook creates a hook reporting to metrics.
func NewMetricsHook(metrics *telemetry.DatabaseMetrics) *MetricsHook {
	return &MetricsHook{metrics: metrics}
}

// BeforeQuery implements bun.QueryHook.
func (h *MetricsHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery implements bun.QueryHook.
func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if h.metrics == nil {
		return
	}
	err := event.Err
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	h.metrics.RecordQuery(ctx, event.Operation(), float64(time.Since(event.StartTime).Microseconds())/1000, err)
}
