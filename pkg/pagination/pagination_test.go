package pagination_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/rhythmrisk/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultLimit: 10, MaxLimit: 100}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", cfg.DefaultLimit)
	}
	if cfg.MaxLimit != 100 {
		t.Errorf("MaxLimit = %d, want 100", cfg.MaxLimit)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DEFAULT_LIMIT", "25")
	t.Setenv("TEST_MAX_LIMIT", "50")

	env := &pagination.ConfigEnv{
		DefaultLimit: "TEST_DEFAULT_LIMIT",
		MaxLimit:     "TEST_MAX_LIMIT",
	}

	cfg := pagination.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultLimit != 25 {
		t.Errorf("DefaultLimit = %d, want 25", cfg.DefaultLimit)
	}
	if cfg.MaxLimit != 50 {
		t.Errorf("MaxLimit = %d, want 50", cfg.MaxLimit)
	}
}

func TestConfigFinalizeValidation(t *testing.T) {
	cfg := pagination.Config{DefaultLimit: 200, MaxLimit: 100}
	err := cfg.Finalize(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "default_limit cannot exceed max_limit") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	base := pagination.Config{DefaultLimit: 10, MaxLimit: 100}
	base.Merge(&pagination.Config{MaxLimit: 40})

	if base.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", base.DefaultLimit)
	}
	if base.MaxLimit != 40 {
		t.Errorf("MaxLimit = %d, want 40", base.MaxLimit)
	}
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 10},
		{name: "explicit", query: "page=3&limit=20", wantPage: 3, wantLimit: 20, wantOffset: 40},
		{name: "max limit", query: "limit=100", wantPage: 1, wantLimit: 100},
		{name: "limit over max", query: "limit=101", wantErr: true},
		{name: "zero limit", query: "limit=0", wantErr: true},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "non-numeric page", query: "page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req, err := pagination.FromQuery(values, defaultConfig())

			if tt.wantErr {
				if !errors.Is(err, pagination.ErrInvalidRequest) {
					t.Fatalf("error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromQuery() error = %v", err)
			}
			if req.Page != tt.wantPage || req.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d",
					req.Page, req.Limit, tt.wantPage, tt.wantLimit)
			}
			if req.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", req.Offset(), tt.wantOffset)
			}
		})
	}
}
