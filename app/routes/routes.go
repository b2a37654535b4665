// Package routes wires controllers and middleware into the HTTP router.
package routes

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogpress/app/avatar"
	"blogpress/app/controllers"
	"blogpress/app/middleware"
	"blogpress/app/models"
	"blogpress/app/views"
)

// AuthService covers everything the web layer needs from auth.Service.
type AuthService interface {
	controllers.Authenticator
	CurrentIdentity(ctx context.Context, token string) models.Identity
	RequireAdmin(identity models.Identity) error
}

// Deps are the collaborators the router is built from.
type Deps struct {
	Posts      controllers.PostService
	Comments   controllers.CommentService
	Auth       AuthService
	Avatars    avatar.Resolver
	AvatarSize int
	Cookie     controllers.CookieConfig
	// FlashKey signs flash cookies. Empty means a random per-process key.
	FlashKey []byte
	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Deps) (*mux.Router, error) {
	rd, err := controllers.NewRenderer(views.Templates(), controllers.NewFlashes(deps.FlashKey, deps.Cookie.Secure))
	if err != nil {
		return nil, err
	}
	if deps.Avatars == nil {
		deps.Avatars = avatar.Static{}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	postController := controllers.NewPostController(rd, deps.Posts, deps.Comments, deps.Avatars, deps.AvatarSize)
	authController := controllers.NewAuthController(rd, deps.Auth, deps.Cookie)
	pageController := controllers.NewPageController(rd)
	metrics := middleware.NewMetrics(deps.Registry)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(rd.NotFound)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(metrics.Middleware)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Identity(deps.Auth, deps.Cookie.Name))

	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(views.Static()))))
	router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.HandleFunc("/", postController.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{id}", postController.Show).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/register", authController.Register).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/login", authController.Login).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/logout", authController.Logout).Methods(http.MethodGet)
	router.HandleFunc("/logout-all", authController.LogoutAll).Methods(http.MethodGet)
	router.HandleFunc("/author/{id}", postController.Author).Methods(http.MethodGet)
	router.HandleFunc("/about", pageController.About).Methods(http.MethodGet)
	router.HandleFunc("/contact", pageController.Contact).Methods(http.MethodGet)

	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin(deps.Auth, http.HandlerFunc(rd.Forbidden)))
	admin.HandleFunc("/new-post", postController.New).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/edit-post/{id}", postController.Edit).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/delete/{id}", postController.Delete).Methods(http.MethodGet)

	return router, nil
}
