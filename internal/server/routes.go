package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/heritagequest/internal/heritage"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	broker := NewBroker()
	svc, reads, admin, c := deps.Service, deps.Reads, deps.Admin, deps.Cache

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Heritage Quest API", "/openapi.json", "/docs"))

	// Player routes, bearer JWT.
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(playerAuthMiddleware(deps.Auth))

			r.Post("/sites/resolve", handleResolveSite(logger, svc))
			r.Get("/sites", handleListSites(logger, reads))
			r.Route("/sites/{siteID}", func(r chi.Router) {
				r.Get("/", handleGetSite(logger, reads))
				r.Get("/overview", handleSiteOverview(logger, reads))
				r.Get("/trivia", handleSiteTrivia(logger, reads))
				r.Post("/sessions", handleStartSession(logger, svc))
				r.Get("/sessions/{sessionType}", handleCurrentSession(logger, svc))
				r.Post("/trivia/answers", handleSubmitAnswer(logger, svc, broker))
				r.Post("/trivia/complete", handleCompleteTrivia(logger, svc, broker, c))
				r.Post("/overview/complete", handleCompleteOverview(logger, svc, broker))
			})

			r.Post("/trips", handleStartTrip(logger, svc, broker))
			r.Get("/trips/active", handleListTrips(logger, reads, heritage.TripActive))
			r.Get("/trips/history", handleListTrips(logger, reads, heritage.TripCompleted))
			r.Get("/trips/{tripID}/buildings", handleTripBuildings(logger, svc))
			r.Post("/trips/{tripID}/visits", handleVisitBuilding(logger, svc, broker, c))
			r.Post("/trips/{tripID}/abandon", handleAbandonTrip(logger, svc, broker))

			r.Get("/me/badges", handleMyBadges(logger, reads))
			r.Get("/me/badges/stats", handleBadgeStats(logger, reads))
			r.Get("/me/profile", handleGetProfile(logger, reads))
			r.Put("/me/profile", handleUpdateProfile(logger, reads, c))
			r.Get("/leaderboard", handleLeaderboard(logger, reads, c))
			r.Get("/events", handleEvents(broker))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", handleAdminLogin(logger, admin))
			r.Post("/logout", handleAdminLogout(logger, admin))
			r.Get("/me", handleAdminMe(admin))

			// Content and badge administration, cookie session.
			r.Group(func(r chi.Router) {
				r.Use(adminAuthMiddleware(admin))

				r.Get("/sites", handleAdminListSites(logger, reads))
				r.Post("/sites", handleAdminCreateSite(logger, admin))
				r.Get("/sites/{siteID}", handleAdminGetSite(logger, admin))
				r.Put("/sites/{siteID}", handleAdminUpdateSite(logger, admin))
				r.Delete("/sites/{siteID}", handleAdminDeleteSite(logger, admin, c))

				r.Post("/users/{userID}/badges", handleAdminAwardBadge(logger, svc, broker, c))
				r.Post("/users/{userID}/badges/reconcile", handleAdminReconcileBadges(logger, svc, c))
			})
		})
	})

	r.With(playerAuthMiddleware(deps.Auth)).Get("/ws/events", handleWSEvents(logger, broker))
}
