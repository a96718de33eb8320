package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Router groups the handlers served by the picker API.
type Router struct {
	Media    *MediaHandler
	Albums   *AlbumHandler
	Sync     *SyncHandler
	Provider *ProviderHandler
	History  *HistoryHandler
	// WebSocket serves GET /ws when set.
	WebSocket      http.HandlerFunc
	AllowedOrigins []string
}

// Handler builds the chi router with the standard middleware stack.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(corsOptions).Handler)

	if rt.WebSocket != nil {
		r.Get("/ws", rt.WebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/media", rt.Media.ListMedia)

		r.Route("/albums", func(r chi.Router) {
			r.Get("/", rt.Albums.ListAlbums)
			r.Get("/favorites", rt.Albums.GetFavorites)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/history", rt.History.ListHistory)
			r.Route("/{authority}", func(r chi.Router) {
				r.Post("/media", rt.Sync.AddMedia)
				r.Post("/media/remove", rt.Sync.RemoveMedia)
				r.Post("/reset", rt.Sync.ResetMedia)
			})
		})

		r.Route("/provider", func(r chi.Router) {
			r.Get("/cloud", rt.Provider.GetCloudProvider)
			r.Put("/cloud", rt.Provider.SetCloudProvider)
		})
	})

	return r
}
