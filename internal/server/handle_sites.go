package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/heritagequest/internal/heritage"
	"github.com/playperu/heritagequest/internal/store"
)

type ResolveRequest struct {
	Token string `json:"token" validate:"required"`
}

type SiteResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Region           string    `json:"region"`
	Description      string    `json:"description"`
	YearBuilt        string    `json:"yearBuilt"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	BuildingCount    int       `json:"buildingCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

type BuildingResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	VisitOrder  int     `json:"visitOrder"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type SiteDetailResponse struct {
	SiteResponse
	Buildings []BuildingResponse `json:"buildings"`
}

type OverviewPageResponse struct {
	ID       string `json:"id"`
	Order    int    `json:"order"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type QuestionResponse struct {
	ID       string            `json:"id"`
	Order    int               `json:"order"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

func toSite(s heritage.Site, buildingCount int) SiteResponse {
	return SiteResponse{
		ID:               s.ID,
		Name:             s.Name,
		Region:           s.Region,
		Description:      s.Description,
		YearBuilt:        s.YearBuilt,
		EstimatedMinutes: s.EstimatedMinutes,
		ImageURL:         s.ImageURL,
		BuildingCount:    buildingCount,
		CreatedAt:        s.CreatedAt,
	}
}

func toBuilding(b heritage.Building) BuildingResponse {
	return BuildingResponse{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		VisitOrder:  b.VisitOrder,
		Latitude:    b.Latitude,
		Longitude:   b.Longitude,
	}
}

func toBuildingPtr(b *heritage.Building) *BuildingResponse {
	if b == nil {
		return nil
	}
	br := toBuilding(*b)
	return &br
}

func handleResolveSite(logger *slog.Logger, svc *heritage.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		site, found, err := svc.ResolveSite(r.Context(), req.Token)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "unknown QR code")
			return
		}
		writeJSON(w, http.StatusOK, toSite(site.Site, site.BuildingCount))
	}
}

func handleListSites(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sites, err := reads.ListSites(r.Context())
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		resp := make([]SiteResponse, 0, len(sites))
		for _, s := range sites {
			resp = append(resp, toSite(s.Site, s.BuildingCount))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetSite(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := reads.SiteDetail(r.Context(), chi.URLParam(r, "siteID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toSiteDetail(detail))
	}
}

func toSiteDetail(d store.SiteDetail) SiteDetailResponse {
	resp := SiteDetailResponse{
		SiteResponse: toSite(d.Site, len(d.Buildings)),
		Buildings:    make([]BuildingResponse, 0, len(d.Buildings)),
	}
	for _, b := range d.Buildings {
		resp.Buildings = append(resp.Buildings, toBuilding(b))
	}
	return resp
}

func handleSiteOverview(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := reads.OverviewPages(r.Context(), chi.URLParam(r, "siteID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		resp := make([]OverviewPageResponse, 0, len(pages))
		for _, p := range pages {
			resp = append(resp, OverviewPageResponse{
				ID:       p.ID,
				Order:    p.Order,
				Title:    p.Title,
				Body:     p.Body,
				ImageURL: p.ImageURL,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSiteTrivia(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := reads.TriviaQuestions(r.Context(), chi.URLParam(r, "siteID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		resp := make([]QuestionResponse, 0, len(questions))
		for _, q := range questions {
			resp = append(resp, QuestionResponse{
				ID:       q.ID,
				Order:    q.Order,
				Question: q.Question,
				Options:  q.Options,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
