package main

import (
	"time"

	"github.com/JaimeStill/rhythmrisk/internal/config"
	"github.com/JaimeStill/rhythmrisk/internal/infrastructure"
	"github.com/JaimeStill/rhythmrisk/internal/processing"
)

// Server wires infrastructure, HTTP modules, and the processing worker.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	worker  *processing.Worker
}

// NewServer initializes every subsystem without starting any of them.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	worker := processing.NewWorker(
		processing.NewQueue(infra.Database.Connection()),
		infra.Storage,
		processing.Config{
			Workers:      cfg.Processing.Workers,
			PollInterval: cfg.Processing.PollIntervalDuration(),
		},
		infra.Logger,
	)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
		worker:  worker,
	}, nil
}

// Start registers infrastructure, the HTTP listener, and the worker with the
// lifecycle.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	s.worker.Start(s.infra.Lifecycle)

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops every subsystem within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
