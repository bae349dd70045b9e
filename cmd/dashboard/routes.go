package main

import (
	"github.com/gorilla/mux"

	"indicator-dashboard/internal/api"
	"indicator-dashboard/internal/gateway"
)

// newRouter composes the public HTTP surface: the gateway socket and read
// endpoints first, then the API behind its own middleware. CORS passes the
// writer through untouched, so it is safe in front of the upgrade.
func newRouter(hub *gateway.Hub, d api.Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(api.CORS)
	gateway.RegisterRoutes(r, hub)
	api.Register(r, d)
	return r
}
