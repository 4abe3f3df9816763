package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/heritagequest/internal/cache"
	"github.com/playperu/heritagequest/internal/heritage"
)

type StartTripRequest struct {
	Token string `json:"token" validate:"required"`
}

type TripResponse struct {
	ID          string     `json:"id"`
	SiteID      string     `json:"siteId"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type StartTripResponse struct {
	Trip         TripResponse `json:"trip"`
	Site         SiteResponse `json:"site"`
	VisitedCount int          `json:"visitedCount"`
	Resumed      bool         `json:"resumed"`
}

type TripSummaryResponse struct {
	TripResponse
	SiteName     string `json:"siteName"`
	SiteRegion   string `json:"siteRegion"`
	VisitedCount int    `json:"visitedCount"`
	TotalCount   int    `json:"totalCount"`
}

type VisitRequest struct {
	BuildingID string `json:"buildingId" validate:"required"`
	Notes      string `json:"notes" validate:"max=2000"`
}

type BadgeAwardResponse struct {
	BadgeID      string     `json:"badgeId"`
	SiteID       string     `json:"siteId"`
	Title        string     `json:"title"`
	Info         string     `json:"info"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	AlreadyOwned bool       `json:"alreadyOwned"`
	EarnedAt     *time.Time `json:"earnedAt,omitempty"`
}

type VisitResponse struct {
	VisitedCount int                 `json:"visitedCount"`
	TotalCount   int                 `json:"totalCount"`
	IsCompleted  bool                `json:"isCompleted"`
	Badge        *BadgeAwardResponse `json:"badge"`
	NextBuilding *BuildingResponse   `json:"nextBuilding"`
}

type BuildingProgressResponse struct {
	BuildingResponse
	Visited   bool       `json:"visited"`
	VisitedAt *time.Time `json:"visitedAt,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

type TripBuildingsResponse struct {
	Trip            TripResponse               `json:"trip"`
	Buildings       []BuildingProgressResponse `json:"buildings"`
	CurrentBuilding *BuildingResponse          `json:"currentBuilding"`
}

func toTrip(t heritage.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		SiteID:      t.SiteID,
		Status:      string(t.Status),
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}

func toBadgeAward(a *heritage.BadgeAward) *BadgeAwardResponse {
	if a == nil {
		return nil
	}
	resp := &BadgeAwardResponse{
		BadgeID:      a.BadgeID,
		SiteID:       a.SiteID,
		Title:        a.Title,
		Info:         a.Info,
		ImageURL:     a.ImageURL,
		AlreadyOwned: a.AlreadyOwned,
	}
	if !a.EarnedAt.IsZero() {
		earned := a.EarnedAt
		resp.EarnedAt = &earned
	}
	return resp
}

// badgeEarned fans out a newly earned badge and drops cached rankings.
func badgeEarned(r *http.Request, broker *Broker, c *cache.Cache, userID string, award *heritage.BadgeAward) {
	if award == nil || award.AlreadyOwned {
		return
	}
	c.Invalidate(r.Context(), leaderboardKey)
	broker.Publish(userID, Event{Type: eventBadgeEarned, SiteID: award.SiteID, BadgeID: award.BadgeID})
}

func handleStartTrip(logger *slog.Logger, svc *heritage.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartTripRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		userID := userFrom(r)

		start, err := svc.StartTrip(r.Context(), userID, req.Token)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		status := http.StatusCreated
		if start.Resumed {
			status = http.StatusOK
		} else {
			broker.Publish(userID, Event{
				Type:       eventTripStarted,
				SiteID:     start.Site.ID,
				TripID:     start.Trip.ID,
				TotalCount: start.Site.BuildingCount,
			})
		}
		writeJSON(w, status, StartTripResponse{
			Trip:         toTrip(start.Trip),
			Site:         toSite(start.Site.Site, start.Site.BuildingCount),
			VisitedCount: start.VisitedCount,
			Resumed:      start.Resumed,
		})
	}
}

func handleListTrips(logger *slog.Logger, reads Reads, status heritage.TripStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trips, err := reads.TripsByStatus(r.Context(), userFrom(r), status)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		resp := make([]TripSummaryResponse, 0, len(trips))
		for _, t := range trips {
			resp = append(resp, TripSummaryResponse{
				TripResponse: toTrip(t.Trip),
				SiteName:     t.SiteName,
				SiteRegion:   t.SiteRegion,
				VisitedCount: t.VisitedCount,
				TotalCount:   t.TotalCount,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleTripBuildings(logger *slog.Logger, svc *heritage.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := svc.TripProgress(r.Context(), userFrom(r), chi.URLParam(r, "tripID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		resp := TripBuildingsResponse{
			Trip:            toTrip(progress.Trip),
			Buildings:       make([]BuildingProgressResponse, 0, len(progress.Buildings)),
			CurrentBuilding: toBuildingPtr(progress.Current),
		}
		for _, b := range progress.Buildings {
			resp.Buildings = append(resp.Buildings, BuildingProgressResponse{
				BuildingResponse: toBuilding(b.Building),
				Visited:          b.Visited,
				VisitedAt:        b.VisitedAt,
				Notes:            b.Notes,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleVisitBuilding(logger *slog.Logger, svc *heritage.Service, broker *Broker, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VisitRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		userID := userFrom(r)
		tripID := chi.URLParam(r, "tripID")

		res, err := svc.VisitBuilding(r.Context(), userID, tripID, req.BuildingID, req.Notes)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		broker.Publish(userID, Event{
			Type:         eventBuildingVisited,
			TripID:       tripID,
			BuildingID:   req.BuildingID,
			VisitedCount: res.VisitedCount,
			TotalCount:   res.TotalCount,
		})
		if res.Badge != nil {
			broker.Publish(userID, Event{Type: eventTripCompleted, TripID: tripID, SiteID: res.Badge.SiteID})
			badgeEarned(r, broker, c, userID, res.Badge)
		}

		writeJSON(w, http.StatusOK, VisitResponse{
			VisitedCount: res.VisitedCount,
			TotalCount:   res.TotalCount,
			IsCompleted:  res.IsCompleted,
			Badge:        toBadgeAward(res.Badge),
			NextBuilding: toBuildingPtr(res.NextBuilding),
		})
	}
}

func handleAbandonTrip(logger *slog.Logger, svc *heritage.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFrom(r)
		trip, err := svc.AbandonTrip(r.Context(), userID, chi.URLParam(r, "tripID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		broker.Publish(userID, Event{Type: eventTripAbandoned, TripID: trip.ID, SiteID: trip.SiteID})
		writeJSON(w, http.StatusOK, toTrip(trip))
	}
}
