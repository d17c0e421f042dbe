package api

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/rhythmrisk/internal/auth"
	"github.com/JaimeStill/rhythmrisk/internal/config"
	"github.com/JaimeStill/rhythmrisk/internal/documents"
	"github.com/JaimeStill/rhythmrisk/internal/infrastructure"
)

const oidcDiscoveryTimeout = 10 * time.Second

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Auth      auth.Config
	Documents documents.Config
}

// NewRuntime creates an API runtime with a module-scoped logger. When an OIDC
// issuer is configured its discovery document is fetched here.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	authCfg := auth.Config{
		Tokens:            auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLDuration(), cfg.Auth.Issuer),
		AllowRegistration: cfg.Auth.RegistrationEnabled(),
	}

	if cfg.Auth.OIDCEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), oidcDiscoveryTimeout)
		defer cancel()

		verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			return nil, fmt.Errorf("oidc init failed: %w", err)
		}
		authCfg.Identity = verifier
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Auth: authCfg,
		Documents: documents.Config{
			Rules:         cfg.API.UploadRules(),
			MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
			Pagination:    cfg.API.Pagination,
			StuckAfter:    cfg.Processing.StuckAfterDuration(),
		},
	}, nil
}
