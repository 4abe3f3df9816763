package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/playperu/heritagequest/internal/cache"
	"github.com/playperu/heritagequest/internal/heritage"
)

type AdminBuilding struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type AdminOverviewPage struct {
	ID       string `json:"id"`
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl"`
}

type AdminQuestion struct {
	ID            string `json:"id"`
	Question      string `json:"question" validate:"required"`
	OptionA       string `json:"optionA" validate:"required"`
	OptionB       string `json:"optionB" validate:"required"`
	OptionC       string `json:"optionC" validate:"required"`
	OptionD       string `json:"optionD" validate:"required"`
	CorrectOption string `json:"correctOption" validate:"required,oneof=A B C D a b c d"`
	Explanation   string `json:"explanation"`
}

type AdminBadge struct {
	ID       string `json:"id"`
	Title    string `json:"title" validate:"required"`
	Info     string `json:"info"`
	ImageURL string `json:"imageUrl"`
}

// AdminSiteRequest is the full content of a site. Buildings, pages and
// questions are ordered by their position in the request.
type AdminSiteRequest struct {
	ID               string              `json:"id"`
	Name             string              `json:"name" validate:"required"`
	Region           string              `json:"region"`
	Description      string              `json:"description"`
	YearBuilt        string              `json:"yearBuilt"`
	QRCode           string              `json:"qrCode"`
	EstimatedMinutes int                 `json:"estimatedMinutes" validate:"gte=0"`
	ImageURL         string              `json:"imageUrl"`
	Buildings        []AdminBuilding     `json:"buildings" validate:"dive"`
	Overview         []AdminOverviewPage `json:"overview" validate:"dive"`
	Questions        []AdminQuestion     `json:"questions" validate:"dive"`
	Badge            *AdminBadge         `json:"badge"`
}

type AdminSiteDetail struct {
	AdminSiteRequest
	BuildingCount int `json:"buildingCount"`
}

type AwardBadgeRequest struct {
	SiteID string `json:"siteId" validate:"required"`
}

type ReconcileResponse struct {
	UserID      string `json:"userId"`
	TotalBadges int    `json:"totalBadges"`
}

// content fills in missing ids and converts the request into a SiteContent.
func (req *AdminSiteRequest) content(siteID string) heritage.SiteContent {
	orBlank := func(id string) string {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
		return uuid.NewString()
	}

	c := heritage.SiteContent{
		Site: heritage.Site{
			ID:               siteID,
			Name:             strings.TrimSpace(req.Name),
			Region:           strings.TrimSpace(req.Region),
			Description:      strings.TrimSpace(req.Description),
			YearBuilt:        strings.TrimSpace(req.YearBuilt),
			QRCode:           strings.TrimSpace(req.QRCode),
			EstimatedMinutes: req.EstimatedMinutes,
			ImageURL:         req.ImageURL,
		},
	}
	for i, b := range req.Buildings {
		c.Buildings = append(c.Buildings, heritage.Building{
			ID:          orBlank(b.ID),
			SiteID:      siteID,
			Name:        strings.TrimSpace(b.Name),
			Category:    b.Category,
			Description: b.Description,
			VisitOrder:  i + 1,
			Latitude:    b.Latitude,
			Longitude:   b.Longitude,
		})
	}
	for i, p := range req.Overview {
		c.Overview = append(c.Overview, heritage.OverviewPage{
			ID:       orBlank(p.ID),
			SiteID:   siteID,
			Order:    i + 1,
			Title:    p.Title,
			Body:     p.Body,
			ImageURL: p.ImageURL,
		})
	}
	for i, q := range req.Questions {
		opt, _ := heritage.NormalizeOption(q.CorrectOption)
		c.Questions = append(c.Questions, heritage.TriviaQuestion{
			ID:            orBlank(q.ID),
			SiteID:        siteID,
			Order:         i + 1,
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: opt,
			Explanation:   q.Explanation,
		})
	}
	if req.Badge != nil {
		c.Badge = &heritage.Badge{
			ID:       orBlank(req.Badge.ID),
			SiteID:   siteID,
			Title:    req.Badge.Title,
			Info:     req.Badge.Info,
			ImageURL: req.Badge.ImageURL,
		}
	}
	return c
}

// duplicateIDs reports a building or question id listed twice.
func (req *AdminSiteRequest) duplicateIDs() string {
	seen := map[string]bool{}
	for _, b := range req.Buildings {
		if b.ID != "" && seen["b:"+b.ID] {
			return "duplicate building id " + b.ID
		}
		seen["b:"+b.ID] = true
	}
	for _, q := range req.Questions {
		if q.ID != "" && seen["q:"+q.ID] {
			return "duplicate question id " + q.ID
		}
		seen["q:"+q.ID] = true
	}
	return ""
}

func toAdminSite(c heritage.SiteContent) AdminSiteDetail {
	d := AdminSiteDetail{
		AdminSiteRequest: AdminSiteRequest{
			ID:               c.Site.ID,
			Name:             c.Site.Name,
			Region:           c.Site.Region,
			Description:      c.Site.Description,
			YearBuilt:        c.Site.YearBuilt,
			QRCode:           c.Site.QRCode,
			EstimatedMinutes: c.Site.EstimatedMinutes,
			ImageURL:         c.Site.ImageURL,
			Buildings:        make([]AdminBuilding, 0, len(c.Buildings)),
			Overview:         make([]AdminOverviewPage, 0, len(c.Overview)),
			Questions:        make([]AdminQuestion, 0, len(c.Questions)),
		},
		BuildingCount: len(c.Buildings),
	}
	for _, b := range c.Buildings {
		d.Buildings = append(d.Buildings, AdminBuilding{
			ID: b.ID, Name: b.Name, Category: b.Category, Description: b.Description,
			Latitude: b.Latitude, Longitude: b.Longitude,
		})
	}
	for _, p := range c.Overview {
		d.Overview = append(d.Overview, AdminOverviewPage{ID: p.ID, Title: p.Title, Body: p.Body, ImageURL: p.ImageURL})
	}
	for _, q := range c.Questions {
		d.Questions = append(d.Questions, AdminQuestion{
			ID: q.ID, Question: q.Question,
			OptionA: q.OptionA, OptionB: q.OptionB, OptionC: q.OptionC, OptionD: q.OptionD,
			CorrectOption: q.CorrectOption, Explanation: q.Explanation,
		})
	}
	if c.Badge != nil {
		d.Badge = &AdminBadge{ID: c.Badge.ID, Title: c.Badge.Title, Info: c.Badge.Info, ImageURL: c.Badge.ImageURL}
	}
	return d
}

func handleAdminListSites(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return handleListSites(logger, reads)
}

func handleAdminGetSite(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := admin.SiteContent(r.Context(), chi.URLParam(r, "siteID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdminSite(c))
	}
}

func handleAdminCreateSite(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminSiteRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if msg := req.duplicateIDs(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		siteID := strings.TrimSpace(req.ID)
		if siteID == "" {
			siteID = uuid.NewString()
		} else if _, err := admin.SiteContent(r.Context(), siteID); err == nil {
			writeError(w, http.StatusConflict, "site already exists")
			return
		} else if !errors.Is(err, heritage.ErrNotFound) {
			writeServiceError(w, logger, r, err)
			return
		}

		saveSite(w, r, logger, admin, req.content(siteID), http.StatusCreated)
	}
}

func handleAdminUpdateSite(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := chi.URLParam(r, "siteID")

		var req AdminSiteRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if msg := req.duplicateIDs(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		existing, err := admin.SiteContent(r.Context(), siteID)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		c := req.content(siteID)
		c.Site.CreatedAt = existing.Site.CreatedAt
		if c.Badge != nil && existing.Badge != nil {
			c.Badge.ID = existing.Badge.ID
		}
		saveSite(w, r, logger, admin, c, http.StatusOK)
	}
}

func saveSite(w http.ResponseWriter, r *http.Request, logger *slog.Logger, admin AdminStore, c heritage.SiteContent, status int) {
	if err := admin.PutSite(r.Context(), c); err != nil {
		writeServiceError(w, logger, r, err)
		return
	}
	saved, err := admin.SiteContent(r.Context(), c.Site.ID)
	if err != nil {
		writeServiceError(w, logger, r, err)
		return
	}
	writeJSON(w, status, toAdminSite(saved))
}

func handleAdminDeleteSite(logger *slog.Logger, admin AdminStore, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeleteSite(r.Context(), chi.URLParam(r, "siteID")); err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		c.Invalidate(r.Context(), leaderboardKey)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminAwardBadge(logger *slog.Logger, svc *heritage.Service, broker *Broker, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AwardBadgeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		userID := chi.URLParam(r, "userID")

		award, err := svc.AwardBadge(r.Context(), userID, req.SiteID)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		logger.Info("badge awarded by admin",
			"admin_id", adminFrom(r).AdminID,
			"user_id", userID,
			"site_id", req.SiteID,
			"already_owned", award.AlreadyOwned,
		)
		badgeEarned(r, broker, c, userID, &award)

		status := http.StatusCreated
		if award.AlreadyOwned {
			status = http.StatusOK
		}
		writeJSON(w, status, toBadgeAward(&award))
	}
}

func handleAdminReconcileBadges(logger *slog.Logger, svc *heritage.Service, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		n, err := svc.ReconcileBadgeCount(r.Context(), userID)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		c.Invalidate(r.Context(), leaderboardKey)
		writeJSON(w, http.StatusOK, ReconcileResponse{UserID: userID, TotalBadges: n})
	}
}
