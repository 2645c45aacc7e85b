package database

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQuery(t *testing.T) {
	t.Run("records query duration per operation", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		metrics, err := NewMetrics(mp.Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}
		if metrics.queryDuration == nil {
			t.Fatal("queryDuration is nil")
		}

		ctx := context.Background()
		metrics.RecordQuery(ctx, "place_order", 0.1)
		metrics.RecordQuery(ctx, "cancel_order", 0.05)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("collect metrics: %v", err)
		}

		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name != "db_query_duration_seconds" {
					continue
				}
				found = true
				histogram, ok := m.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatalf("expected Histogram[float64], got %T", m.Data)
				}
				if len(histogram.DataPoints) != 2 {
					t.Errorf("expected one data point per operation, got %d", len(histogram.DataPoints))
				}
			}
		}
		if !found {
			t.Error("db_query_duration_seconds metric not found")
		}
	})
}
