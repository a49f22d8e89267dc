package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/revitview/pkg/routes"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/models",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: status(http.StatusOK)},
			{Method: "DELETE", Pattern: "/{id}", Handler: status(http.StatusNoContent)},
		},
	}, routes.Group{
		Prefix: "/models/{id}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/info", Handler: status(http.StatusAccepted)},
		},
	})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/models", http.StatusOK},
		{"DELETE", "/models/1", http.StatusNoContent},
		{"GET", "/models/1/info", http.StatusAccepted},
		{"POST", "/models", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
