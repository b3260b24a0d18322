package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"instagramclone/internal/config"
)

// NewRouter registers every route. Route-aware middleware (logging, metrics)
// is attached with Use so it can see the matched path template.
func NewRouter(h *Handlers, metricsHandler http.Handler, routeMiddleware ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/", h.GetFeed).Methods(http.MethodGet)
	r.HandleFunc("/images", h.GetImages).Methods(http.MethodGet)
	r.HandleFunc("/posts/{postId:[0-9]+}", h.GetPost).Methods(http.MethodGet)

	r.HandleFunc("/signup", h.SignupForm).Methods(http.MethodGet)
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", h.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/upload", h.UploadForm).Methods(http.MethodGet)
	r.HandleFunc("/upload", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/like/{postId:[0-9]+}", h.Like).Methods(http.MethodPost)
	r.HandleFunc("/comment/{postId:[0-9]+}", h.Comment).Methods(http.MethodPost)

	if h.Cfg.Media.Backend == config.MediaLocal {
		prefix := strings.TrimSuffix(h.Cfg.Media.PublicPrefix, "/") + "/"
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(h.Cfg.Media.UploadDir)))
		r.PathPrefix(prefix).Handler(noDirectoryListing(files)).Methods(http.MethodGet, http.MethodHead)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	r.Use(routeMiddleware...)
	return r
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, "no such route", "not_found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, "method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
}
