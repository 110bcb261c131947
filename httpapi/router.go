package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP surface. The websocket endpoint shares
// the listener with uploads, static attachment serving, the directory API,
// and the operational endpoints.
func NewRouter(
	socket http.Handler,
	uploads *UploadHandler,
	users *UsersHandler,
	uploadsDir string,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", socket.ServeHTTP)

	r.Post("/api/upload/voice", uploads.Voice)
	r.Post("/api/upload/file", uploads.File)
	r.Get("/api/users", users.ServeHTTP)

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
