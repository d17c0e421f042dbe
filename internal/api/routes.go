package api

import (
	"net/http"

	"github.com/JaimeStill/rhythmrisk/pkg/openapi"
	"github.com/JaimeStill/rhythmrisk/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, spec []byte) {
	docs := domain.Documents.Handler().Routes()
	docs.Middleware = append(docs.Middleware, domain.Auth.Middleware())

	routes.Register(
		mux,
		routes.Group{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/openapi.json", Handler: openapi.ServeSpec(spec)},
			},
		},
		domain.Auth.Handler().Routes(),
		docs,
	)
}
