package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ServiceName:    "checkout-api",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"missing service version", func(c *Config) { c.ServiceVersion = "" }, ErrMissingServiceVersion},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, ErrInvalidSampleRate},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.1 }, ErrInvalidSampleRate},
		{"valid with zero sample rate", func(c *Config) { c.SampleRate = 0.0 }, nil},
		{"valid with full sampling", func(c *Config) {}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitializeAndShutdown(t *testing.T) {
	shutdown := func(t *testing.T, tel *Telemetry) {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	}

	t.Run("rejects an invalid config", func(t *testing.T) {
		cfg := validConfig()
		cfg.ServiceName = ""

		tel, err := Initialize(context.Background(), cfg)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if tel != nil {
			t.Error("expected nil telemetry on error")
		}
	})

	t.Run("provides only the enabled providers", func(t *testing.T) {
		tests := []struct {
			name           string
			tracing        bool
			metricsEnabled bool
		}{
			{"tracing only", true, false},
			{"metrics only", false, true},
			{"both", true, true},
			{"neither", false, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := validConfig()
				cfg.EnableTracing = tt.tracing
				cfg.EnableMetrics = tt.metricsEnabled

				tel, err := Initialize(context.Background(), cfg,
					WithTraceExporter(NewNoopTraceExporter()),
					WithMetricExporter(NewNoopMetricExporter()),
				)
				if err != nil {
					t.Fatalf("initialize failed: %v", err)
				}
				defer shutdown(t, tel)

				if (tel.TracerProvider() != nil) != tt.tracing {
					t.Errorf("tracer provider presence = %v, want %v", tel.TracerProvider() != nil, tt.tracing)
				}
				if (tel.MeterProvider() != nil) != tt.metricsEnabled {
					t.Errorf("meter provider presence = %v, want %v", tel.MeterProvider() != nil, tt.metricsEnabled)
				}
			})
		}
	})

	t.Run("shutdown on an empty instance is a no-op", func(t *testing.T) {
		if err := (&Telemetry{}).Shutdown(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		wantDesc string
	}{
		{"zero disables sampling", 0.0, "AlwaysOffSampler"},
		{"negative disables sampling", -0.1, "AlwaysOffSampler"},
		{"one samples everything", 1.0, "AlwaysOnSampler"},
		{"above one samples everything", 1.5, "AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := createSampler(tt.rate)
			if sampler == nil {
				t.Fatal("expected sampler, got nil")
			}
			if sampler.Description() != tt.wantDesc {
				t.Errorf("expected %s, got %s", tt.wantDesc, sampler.Description())
			}
		})
	}

	t.Run("fractional rate yields a ratio sampler", func(t *testing.T) {
		if createSampler(0.5) == nil {
			t.Error("expected sampler, got nil")
		}
	})
}
