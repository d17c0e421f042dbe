package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/rhythmrisk/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{name: "memory needs nothing", cfg: storage.Config{Driver: storage.DriverMemory}},
		{name: "connection string", cfg: storage.Config{ConnectionString: azuriteConnString}},
		{name: "service url", cfg: storage.Config{ServiceURL: "https://acct.blob.core.windows.net/"}},
		{name: "azure without credentials", cfg: storage.Config{}, wantErr: "connection_string or service_url required"},
		{name: "unknown driver", cfg: storage.Config{Driver: "s3"}, wantErr: "unknown driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("finalize failed: %v", err)
				}
				if tt.cfg.ContainerName != "documents" {
					t.Errorf("ContainerName = %q, want documents", tt.cfg.ContainerName)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_STORAGE_DRIVER", "memory")
	t.Setenv("TEST_STORAGE_CONTAINER", "uploads")

	cfg := storage.Config{}
	err := cfg.Finalize(&storage.Env{
		Driver:        "TEST_STORAGE_DRIVER",
		ContainerName: "TEST_STORAGE_CONTAINER",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Driver != storage.DriverMemory || cfg.ContainerName != "uploads" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestNewAzure(t *testing.T) {
	sys, err := storage.New(&storage.Config{
		Driver:           storage.DriverAzure,
		ContainerName:    "documents",
		ConnectionString: azuriteConnString,
	}, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys == nil {
		t.Fatal("New() returned nil system")
	}

	_, err = storage.New(&storage.Config{
		Driver:           storage.DriverAzure,
		ContainerName:    "documents",
		ConnectionString: "not-a-connection-string",
	}, discard())
	if err == nil {
		t.Fatal("expected error for invalid connection string")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	sys := storage.NewMemory()
	ctx := context.Background()
	key := "org-1/doc-1/policy.pdf"

	if err := sys.Upload(ctx, key, strings.NewReader("%PDF-1.7"), "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	b, err := sys.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := io.ReadAll(b.Body)
	b.Body.Close()

	if string(data) != "%PDF-1.7" || b.ContentType != "application/pdf" || b.ContentLength != 8 {
		t.Errorf("blob = %q %s %d", data, b.ContentType, b.ContentLength)
	}

	if err := sys.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := sys.Download(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() after delete error = %v, want ErrNotFound", err)
	}
	if err := sys.Delete(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestKeyValidation(t *testing.T) {
	systems := map[string]storage.System{"memory": storage.NewMemory()}

	azure, err := storage.New(&storage.Config{
		Driver:           storage.DriverAzure,
		ContainerName:    "documents",
		ConnectionString: azuriteConnString,
	}, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	systems["azure"] = azure

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", storage.ErrEmptyKey},
		{"path traversal", "org/../secrets/key", storage.ErrInvalidKey},
		{"absolute", "/org/doc/file.pdf", storage.ErrInvalidKey},
	}

	ctx := context.Background()

	for driver, sys := range systems {
		for _, tt := range tests {
			t.Run(driver+"/"+tt.name, func(t *testing.T) {
				err := sys.Upload(ctx, tt.key, bytes.NewReader(nil), "application/pdf")
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
				}
				if _, err := sys.Download(ctx, tt.key); !errors.Is(err, tt.wantErr) {
					t.Errorf("Download() error = %v, want %v", err, tt.wantErr)
				}
				if err := sys.Delete(ctx, tt.key); !errors.Is(err, tt.wantErr) {
					t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
