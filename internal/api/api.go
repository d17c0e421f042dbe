// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/rhythmrisk/internal/config"
	"github.com/JaimeStill/rhythmrisk/internal/infrastructure"
	"github.com/JaimeStill/rhythmrisk/pkg/middleware"
	"github.com/JaimeStill/rhythmrisk/pkg/module"
	"github.com/JaimeStill/rhythmrisk/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	spec, err := openapi.MarshalJSON(buildSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, spec)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
