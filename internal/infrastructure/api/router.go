package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

func NewRouter(h *OutfitHandler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", h.HandleIndex).Methods("GET")
	r.HandleFunc("/healthz", h.HandleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/styles", h.HandleStyles).Methods("GET")
	api.HandleFunc("/sessions", h.HandleCreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.HandleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/upload", h.HandleUpload).Methods("POST")
	api.HandleFunc("/sessions/{id}/generate", h.HandleGenerate).Methods("POST")
	api.HandleFunc("/sessions/{id}/generate-more", h.HandleGenerateMore).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", h.HandleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/outfits/{index:[0-9]+}/download", h.HandleDownload).Methods("GET")

	if len(allowedOrigins) == 0 {
		return r
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})(r)
}
