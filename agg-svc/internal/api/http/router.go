package httpapi

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter serves the read-only stats API to owner dashboards.
func NewRouter(handler *Handler) http.Handler {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(r)
}

func StartServer(addr string, handler http.Handler) {
	log.Printf("Aggregation Service listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
