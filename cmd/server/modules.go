package main

import (
	"net/http"

	"github.com/JaimeStill/rhythmrisk/internal/api"
	"github.com/JaimeStill/rhythmrisk/internal/config"
	"github.com/JaimeStill/rhythmrisk/internal/infrastructure"
	"github.com/JaimeStill/rhythmrisk/pkg/handlers"
	"github.com/JaimeStill/rhythmrisk/pkg/module"
)

// Modules holds the prefix-mounted HTTP modules.
type Modules struct {
	API *module.Module
}

// NewModules creates every HTTP module.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

// Mount registers the modules with router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if failures := infra.Lifecycle.Readiness(r.Context()); failures != nil {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, readiness{
				Status:   "not ready",
				Failures: failures,
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ready"})
	})

	return router
}
