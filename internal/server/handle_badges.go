package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/playperu/heritagequest/internal/cache"
	"github.com/playperu/heritagequest/internal/store"
)

const (
	leaderboardKey          = "leaderboard:"
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type EarnedBadgeResponse struct {
	BadgeID  string    `json:"badgeId"`
	SiteID   string    `json:"siteId"`
	SiteName string    `json:"siteName"`
	Title    string    `json:"title"`
	Info     string    `json:"info"`
	ImageURL string    `json:"imageUrl,omitempty"`
	EarnedAt time.Time `json:"earnedAt"`
}

type BadgeStatsResponse struct {
	TotalBadges  int        `json:"totalBadges"`
	LastEarnedAt *time.Time `json:"lastEarnedAt,omitempty"`
}

type LeaderboardEntryResponse struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TotalBadges int    `json:"totalBadges"`
	Location    string `json:"location"`
}

type ProfileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	TotalBadges int    `json:"totalBadges"`
}

type ProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=80"`
}

func handleMyBadges(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		badges, err := reads.UserBadges(r.Context(), userFrom(r))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		resp := make([]EarnedBadgeResponse, 0, len(badges))
		for _, b := range badges {
			resp = append(resp, EarnedBadgeResponse{
				BadgeID:  b.ID,
				SiteID:   b.SiteID,
				SiteName: b.SiteName,
				Title:    b.Title,
				Info:     b.Info,
				ImageURL: b.ImageURL,
				EarnedAt: b.EarnedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBadgeStats(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := reads.BadgeStats(r.Context(), userFrom(r))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, BadgeStatsResponse{
			TotalBadges:  stats.TotalBadges,
			LastEarnedAt: stats.LastEarnedAt,
		})
	}
}

func handleLeaderboard(logger *slog.Logger, reads Reads, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboardLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxLeaderboardLimit)
		}

		key := leaderboardKey + strconv.Itoa(limit)
		resp, err := cache.Fetch(r.Context(), c, key, func(ctx context.Context) ([]LeaderboardEntryResponse, error) {
			entries, err := reads.Leaderboard(ctx, limit)
			if err != nil {
				return nil, err
			}
			return toLeaderboard(entries), nil
		})
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func toLeaderboard(entries []store.LeaderboardEntry) []LeaderboardEntryResponse {
	resp := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, LeaderboardEntryResponse{
			Rank:        e.Rank,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			TotalBadges: e.TotalBadges,
			Location:    e.Location,
		})
	}
	return resp
}

func handleGetProfile(logger *slog.Logger, reads Reads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := reads.Profile(r.Context(), userFrom(r))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{ID: p.ID, DisplayName: p.DisplayName, TotalBadges: p.TotalBadges})
	}
}

func handleUpdateProfile(logger *slog.Logger, reads Reads, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		name := strings.TrimSpace(req.DisplayName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "displayName is required")
			return
		}

		p, err := reads.SetDisplayName(r.Context(), userFrom(r), name)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		c.Invalidate(r.Context(), leaderboardKey)
		writeJSON(w, http.StatusOK, ProfileResponse{ID: p.ID, DisplayName: p.DisplayName, TotalBadges: p.TotalBadges})
	}
}
