package server

import (
	"net/http"
	"testing"
)

func startTrip(t *testing.T, env *testEnv, tok string) StartTripResponse {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/trips", tok, StartTripRequest{Token: borobudurQR})
	if w.Code != http.StatusCreated && w.Code != http.StatusOK {
		t.Fatalf("start trip: expected 201 or 200, got %d: %s", w.Code, w.Body.String())
	}
	return decode[StartTripResponse](t, w)
}

func visit(t *testing.T, env *testEnv, tok, tripID, buildingID string) *VisitResponse {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/trips/"+tripID+"/visits", tok, VisitRequest{BuildingID: buildingID})
	expectStatus(t, w, http.StatusOK)
	resp := decode[VisitResponse](t, w)
	return &resp
}

func TestStartTripAndResume(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/trips", tok, StartTripRequest{Token: borobudurQR})
	expectStatus(t, w, http.StatusCreated)
	first := decode[StartTripResponse](t, w)

	if first.Resumed {
		t.Error("first start should not be resumed")
	}
	if first.Trip.Status != "active" {
		t.Errorf("expected active trip, got %q", first.Trip.Status)
	}
	if first.Site.BuildingCount != len(borobudurBuildings) {
		t.Errorf("expected %d buildings, got %d", len(borobudurBuildings), first.Site.BuildingCount)
	}

	w = env.do(t, http.MethodPost, "/api/trips", tok, StartTripRequest{Token: borobudurQR})
	expectStatus(t, w, http.StatusOK)
	second := decode[StartTripResponse](t, w)

	if !second.Resumed {
		t.Error("second start should resume")
	}
	if second.Trip.ID != first.Trip.ID {
		t.Errorf("expected trip %s to resume, got %s", first.Trip.ID, second.Trip.ID)
	}

	w = env.do(t, http.MethodGet, "/api/trips/active", tok, nil)
	expectStatus(t, w, http.StatusOK)
	active := decode[[]TripSummaryResponse](t, w)
	if len(active) != 1 || active[0].ID != first.Trip.ID {
		t.Fatalf("expected one active trip %s, got %+v", first.Trip.ID, active)
	}
	if active[0].SiteName != "Candi Borobudur" {
		t.Errorf("expected site name Candi Borobudur, got %q", active[0].SiteName)
	}
}

func TestStartTripUnknownQR(t *testing.T) {
	env := setupServer(t)

	w := env.do(t, http.MethodPost, "/api/trips", env.token(t, "user-1"), StartTripRequest{Token: "NOPE"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestCompleteTripAwardsBadgeOnce(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")
	trip := startTrip(t, env, tok).Trip

	for i, b := range borobudurBuildings {
		resp := visit(t, env, tok, trip.ID, b)

		if resp.VisitedCount != i+1 {
			t.Errorf("visit %d: expected visited count %d, got %d", i, i+1, resp.VisitedCount)
		}
		if resp.TotalCount != len(borobudurBuildings) {
			t.Errorf("visit %d: expected total %d, got %d", i, len(borobudurBuildings), resp.TotalCount)
		}

		last := i == len(borobudurBuildings)-1
		if resp.IsCompleted != last {
			t.Errorf("visit %d: isCompleted = %v", i, resp.IsCompleted)
		}
		if last {
			if resp.Badge == nil || resp.Badge.BadgeID != "badge-borobudur" {
				t.Fatalf("expected Borobudur badge on last visit, got %+v", resp.Badge)
			}
			if resp.Badge.AlreadyOwned {
				t.Error("badge should be newly earned")
			}
			if resp.NextBuilding != nil {
				t.Errorf("expected no next building, got %+v", resp.NextBuilding)
			}
		} else {
			if resp.Badge != nil {
				t.Errorf("visit %d: unexpected badge", i)
			}
			if resp.NextBuilding == nil || resp.NextBuilding.ID != borobudurBuildings[i+1] {
				t.Errorf("visit %d: expected next building %s, got %+v", i, borobudurBuildings[i+1], resp.NextBuilding)
			}
		}
	}

	// Replaying the last visit reports completion without another badge.
	replay := visit(t, env, tok, trip.ID, borobudurBuildings[4])
	if !replay.IsCompleted || replay.Badge != nil || replay.VisitedCount != 5 {
		t.Errorf("unexpected replay response %+v", replay)
	}

	w := env.do(t, http.MethodGet, "/api/trips/history", tok, nil)
	expectStatus(t, w, http.StatusOK)
	history := decode[[]TripSummaryResponse](t, w)
	if len(history) != 1 || history[0].Status != "completed" || history[0].CompletedAt == nil {
		t.Fatalf("expected one completed trip in history, got %+v", history)
	}

	w = env.do(t, http.MethodGet, "/api/me/badges/stats", tok, nil)
	expectStatus(t, w, http.StatusOK)
	stats := decode[BadgeStatsResponse](t, w)
	if stats.TotalBadges != 1 || stats.LastEarnedAt == nil {
		t.Errorf("expected one badge with earned time, got %+v", stats)
	}

	// The next trip at the same site starts fresh.
	next := startTrip(t, env, tok)
	if next.Resumed || next.Trip.ID == trip.ID {
		t.Errorf("expected a new trip after completion, got %+v", next.Trip)
	}
}

func TestVisitIsIdempotent(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")
	trip := startTrip(t, env, tok).Trip

	first := visit(t, env, tok, trip.ID, borobudurBuildings[2])
	second := visit(t, env, tok, trip.ID, borobudurBuildings[2])

	if first.VisitedCount != 1 || second.VisitedCount != 1 {
		t.Errorf("expected visited count to stay 1, got %d then %d", first.VisitedCount, second.VisitedCount)
	}
}

func TestVisitErrors(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")
	trip := startTrip(t, env, tok).Trip

	tests := []struct {
		name   string
		tripID string
		token  string
		body   VisitRequest
		want   int
	}{
		{"building of another site", trip.ID, tok, VisitRequest{BuildingID: "bld-prambanan-shiva"}, http.StatusNotFound},
		{"unknown building", trip.ID, tok, VisitRequest{BuildingID: "bld-nope"}, http.StatusNotFound},
		{"unknown trip", "trip-nope", tok, VisitRequest{BuildingID: borobudurBuildings[0]}, http.StatusNotFound},
		{"another user's trip", trip.ID, env.token(t, "user-2"), VisitRequest{BuildingID: borobudurBuildings[0]}, http.StatusNotFound},
		{"missing building id", trip.ID, tok, VisitRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/trips/"+tt.tripID+"/visits", tt.token, tt.body)
			expectStatus(t, w, tt.want)
		})
	}
}

func TestTripBuildingsChecklist(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")
	trip := startTrip(t, env, tok).Trip

	w := env.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/visits", tok,
		VisitRequest{BuildingID: borobudurBuildings[0], Notes: "  east gate  "})
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/buildings", tok, nil)
	expectStatus(t, w, http.StatusOK)
	resp := decode[TripBuildingsResponse](t, w)

	if len(resp.Buildings) != len(borobudurBuildings) {
		t.Fatalf("expected %d buildings, got %d", len(borobudurBuildings), len(resp.Buildings))
	}
	if !resp.Buildings[0].Visited || resp.Buildings[0].Notes != "east gate" {
		t.Errorf("expected first building visited with trimmed notes, got %+v", resp.Buildings[0])
	}
	if resp.Buildings[1].Visited {
		t.Error("second building should not be visited")
	}
	if resp.CurrentBuilding == nil || resp.CurrentBuilding.ID != borobudurBuildings[1] {
		t.Errorf("expected current building %s, got %+v", borobudurBuildings[1], resp.CurrentBuilding)
	}
}

func TestAbandonTrip(t *testing.T) {
	env := setupServer(t)
	tok := env.token(t, "user-1")
	trip := startTrip(t, env, tok).Trip

	w := env.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/abandon", tok, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[TripResponse](t, w); got.Status != "abandoned" {
		t.Errorf("expected abandoned, got %q", got.Status)
	}

	w = env.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/abandon", tok, nil)
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/visits", tok, VisitRequest{BuildingID: borobudurBuildings[0]})
	expectStatus(t, w, http.StatusConflict)

	next := startTrip(t, env, tok)
	if next.Resumed {
		t.Error("abandoned trip should not be resumed")
	}
}
