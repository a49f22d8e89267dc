package api

import (
	"net/http"

	"github.com/JaimeStill/revitview/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	upload := newUploadHandler(runtime, domain)
	models := newModelsHandler(runtime.APS, domain.Jobs, runtime.Logger)
	health := newHealthHandler(runtime.APS, runtime.Version, runtime.Logger)

	groups := domain.Jobs.Handler().Routes()
	groups = append(groups,
		upload.routes(),
		models.routes(),
		health.routes(),
	)

	routes.Register(mux, groups...)
}
