package heritage

import (
	"context"
	"fmt"
	"strings"
)

// TripStart is the result of StartTrip. Resumed is set when an active trip
// for the same user and site already existed.
type TripStart struct {
	Trip         Trip
	Site         ResolvedSite
	VisitedCount int
	Resumed      bool
}

type VisitResult struct {
	VisitedCount int
	TotalCount   int
	IsCompleted  bool
	// Badge is set only on the call that completed the trip.
	Badge        *BadgeAward
	NextBuilding *Building
}

type TripProgress struct {
	Trip      Trip
	Buildings []BuildingProgress
	Current   *Building
}

// StartTrip opens a trip for the site behind token. An existing active trip
// on the same site is resumed rather than duplicated.
func (s *Service) StartTrip(ctx context.Context, userID, token string) (TripStart, error) {
	if strings.TrimSpace(userID) == "" {
		return TripStart{}, ErrUserRequired
	}

	var out TripStart
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		out = TripStart{}

		site, ok, err := resolveSite(ctx, tx, token)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSiteNotFound
		}
		out.Site = site

		now := s.now()
		if err := tx.EnsureProfile(ctx, userID, now); err != nil {
			return err
		}

		trip, ok, err := tx.ActiveTrip(ctx, userID, site.ID)
		if err != nil {
			return err
		}
		if !ok {
			trip = Trip{
				ID:        s.newID(),
				UserID:    userID,
				SiteID:    site.ID,
				Status:    TripActive,
				StartedAt: now,
			}
			inserted, err := tx.InsertTrip(ctx, trip)
			if err != nil {
				return err
			}
			if !inserted {
				// Lost the race on the one-active-trip index.
				trip, ok, err = tx.ActiveTrip(ctx, userID, site.ID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("starting trip: %w", ErrConflict)
				}
				out.Resumed = true
			}
		} else {
			out.Resumed = true
		}
		out.Trip = trip

		out.VisitedCount, err = tx.CountVisits(ctx, trip.ID)
		return err
	})
	return out, err
}

// VisitBuilding records that the trip reached a building. Repeating a visit
// returns the current counts without side effects. The visit that covers
// the last building completes the trip and awards the site badge.
func (s *Service) VisitBuilding(ctx context.Context, userID, tripID, buildingID, notes string) (VisitResult, error) {
	if strings.TrimSpace(userID) == "" {
		return VisitResult{}, ErrUserRequired
	}

	var out VisitResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		out = VisitResult{}

		trip, err := ownedTrip(ctx, tx, userID, tripID)
		if err != nil {
			return err
		}

		b, ok, err := tx.Building(ctx, buildingID)
		if err != nil {
			return err
		}
		if !ok || b.SiteID != trip.SiteID {
			return ErrBuildingNotFound
		}

		total, err := tx.CountBuildings(ctx, trip.SiteID)
		if err != nil {
			return err
		}
		out.TotalCount = total

		if trip.Status != TripActive {
			seen, err := tx.VisitExists(ctx, trip.ID, b.ID)
			if err != nil {
				return err
			}
			if !seen || trip.Status != TripCompleted {
				return ErrTripNotActive
			}
			// Replay of a visit on a finished trip.
			out.VisitedCount, err = tx.CountVisits(ctx, trip.ID)
			out.IsCompleted = true
			return err
		}

		now := s.now()
		created, err := tx.InsertVisit(ctx, BuildingVisit{
			TripID:     trip.ID,
			BuildingID: b.ID,
			VisitedAt:  now,
			Notes:      strings.TrimSpace(notes),
		})
		if err != nil {
			return err
		}

		out.VisitedCount, err = tx.CountVisits(ctx, trip.ID)
		if err != nil {
			return err
		}

		progress, err := tx.TripBuildings(ctx, trip.ID, trip.SiteID)
		if err != nil {
			return err
		}
		out.NextBuilding = CurrentBuilding(progress)

		if !created || total == 0 || out.VisitedCount < total {
			return nil
		}

		completed, err := tx.TransitionTrip(ctx, trip.ID, TripActive, TripCompleted, now)
		if err != nil {
			return err
		}
		out.IsCompleted = true
		if !completed {
			return nil
		}

		award, err := awardBadge(ctx, tx, s, userID, trip.SiteID)
		if err != nil {
			return err
		}
		out.Badge = &award
		return nil
	})
	return out, err
}

// AbandonTrip moves an active trip to abandoned.
func (s *Service) AbandonTrip(ctx context.Context, userID, tripID string) (Trip, error) {
	if strings.TrimSpace(userID) == "" {
		return Trip{}, ErrUserRequired
	}

	var out Trip
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		trip, err := ownedTrip(ctx, tx, userID, tripID)
		if err != nil {
			return err
		}
		now := s.now()
		ok, err := tx.TransitionTrip(ctx, trip.ID, TripActive, TripAbandoned, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTripNotActive
		}
		trip.Status = TripAbandoned
		out = trip
		return nil
	})
	return out, err
}

// TripProgress lists the trip's buildings in visit order with their visit
// status and the building the user should head to next.
func (s *Service) TripProgress(ctx context.Context, userID, tripID string) (TripProgress, error) {
	var out TripProgress
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		trip, err := ownedTrip(ctx, tx, userID, tripID)
		if err != nil {
			return err
		}
		progress, err := tx.TripBuildings(ctx, trip.ID, trip.SiteID)
		if err != nil {
			return err
		}
		out = TripProgress{
			Trip:      trip,
			Buildings: progress,
			Current:   CurrentBuilding(progress),
		}
		return nil
	})
	return out, err
}

// ownedTrip hides other users' trips behind not found.
func ownedTrip(ctx context.Context, tx Tx, userID, tripID string) (Trip, error) {
	trip, ok, err := tx.Trip(ctx, tripID)
	if err != nil {
		return Trip{}, err
	}
	if !ok || trip.UserID != userID {
		return Trip{}, ErrTripNotFound
	}
	return trip, nil
}
