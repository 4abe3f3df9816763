package heritage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type BadgeAward struct {
	BadgeID      string
	SiteID       string
	Title        string
	Info         string
	ImageURL     string
	AlreadyOwned bool
	// EarnedAt is zero when the badge was already owned.
	EarnedAt time.Time
}

// AwardBadge grants the site's badge to the user. Granting a badge the user
// already owns changes nothing and reports AlreadyOwned.
func (s *Service) AwardBadge(ctx context.Context, userID, siteID string) (BadgeAward, error) {
	if strings.TrimSpace(userID) == "" {
		return BadgeAward{}, ErrUserRequired
	}

	var out BadgeAward
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = awardBadge(ctx, tx, s, userID, siteID)
		return err
	})
	return out, err
}

// awardBadge relies on the (profile, badge) primary key: the insert either
// creates the link and bumps total_badges in the same transaction, or is a
// no-op for an owned badge.
func awardBadge(ctx context.Context, tx Tx, s *Service, userID, siteID string) (BadgeAward, error) {
	site, ok, err := tx.SiteByID(ctx, siteID)
	if err != nil {
		return BadgeAward{}, err
	}
	if !ok {
		return BadgeAward{}, ErrSiteNotFound
	}

	now := s.now()
	badge, err := siteBadge(ctx, tx, s, site, now)
	if err != nil {
		return BadgeAward{}, err
	}

	if err := tx.EnsureProfile(ctx, userID, now); err != nil {
		return BadgeAward{}, err
	}
	inserted, err := tx.InsertProfileBadge(ctx, ProfileBadge{
		ProfileID: userID,
		BadgeID:   badge.ID,
		EarnedAt:  now,
	})
	if err != nil {
		return BadgeAward{}, err
	}
	if inserted {
		if err := tx.IncrementTotalBadges(ctx, userID); err != nil {
			return BadgeAward{}, err
		}
	}

	award := BadgeAward{
		BadgeID:      badge.ID,
		SiteID:       site.ID,
		Title:        badge.Title,
		Info:         badge.Info,
		ImageURL:     badge.ImageURL,
		AlreadyOwned: !inserted,
	}
	if inserted {
		award.EarnedAt = now
	}
	return award, nil
}

// siteBadge returns the badge defined for site, defining a default one on
// first use.
func siteBadge(ctx context.Context, tx Tx, s *Service, site Site, now time.Time) (Badge, error) {
	badge, ok, err := tx.BadgeForSite(ctx, site.ID)
	if err != nil || ok {
		return badge, err
	}

	if _, err := tx.InsertBadge(ctx, Badge{
		ID:        s.newID(),
		SiteID:    site.ID,
		Title:     site.Name + " Explorer",
		Info:      "Completed the heritage trail at " + site.Name + ".",
		ImageURL:  site.ImageURL,
		CreatedAt: now,
	}); err != nil {
		return Badge{}, err
	}

	badge, ok, err = tx.BadgeForSite(ctx, site.ID)
	if err != nil {
		return Badge{}, err
	}
	if !ok {
		return Badge{}, fmt.Errorf("defining badge for site %s: %w", site.ID, ErrConflict)
	}
	return badge, nil
}

// ReconcileBadgeCount rewrites the user's total_badges from the earned
// badge rows and returns the corrected value.
func (s *Service) ReconcileBadgeCount(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUserRequired
	}

	var n int
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.EnsureProfile(ctx, userID, s.now()); err != nil {
			return err
		}
		var err error
		n, err = tx.CountProfileBadges(ctx, userID)
		if err != nil {
			return err
		}
		return tx.SetTotalBadges(ctx, userID, n)
	})
	return n, err
}
