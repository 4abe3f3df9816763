package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/heritagequest/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type siteParams struct {
	SiteID string `path:"siteID"`
}

type tripParams struct {
	TripID string `path:"tripID"`
}

type sessionParams struct {
	SiteID      string `path:"siteID"`
	SessionType string `path:"sessionType" enum:"overview,trivia"`
}

type userParams struct {
	UserID string `path:"userID"`
}

type leaderboardParams struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"10"`
}

type eventParams struct {
	Token string `query:"token" description:"Bearer token for clients that cannot set headers."`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	body   any
	status int
	opts   []openapi.ContentOption
}

func ok(body any) response {
	return response{body: body, status: http.StatusOK}
}

func created(body any) response {
	return response{body: body, status: http.StatusCreated}
}

func failure(status int) response {
	return response{body: ErrorResponse{}, status: status}
}

func stream(contentType string) response {
	return response{
		status: http.StatusOK,
		opts:   []openapi.ContentOption{openapi.WithContentType(contentType)},
	}
}

func switching() response {
	return response{
		status: http.StatusSwitchingProtocols,
		opts:   []openapi.ContentOption{openapi.WithContentType("text/plain")},
	}
}

func withParams(params, body any) []any {
	return []any{params, body}
}

const bearer = " Requires Bearer token."
const cookie = " Requires admin_session cookie."

func operations() []operation {
	return []operation{
		{http.MethodGet, "/healthz", "Health check",
			"Returns the health of sqlite and the optional redis cache.",
			nil, []response{ok(health.Report{}), {body: health.Report{}, status: http.StatusServiceUnavailable}}},

		{http.MethodPost, "/api/sites/resolve", "Resolve QR code",
			"Looks up a site by its QR code token or id." + bearer,
			ResolveRequest{}, []response{ok(SiteResponse{}), failure(http.StatusNotFound), failure(http.StatusUnauthorized)}},
		{http.MethodGet, "/api/sites", "List sites",
			"Returns all sites with building counts." + bearer,
			nil, []response{ok([]SiteResponse{}), failure(http.StatusUnauthorized)}},
		{http.MethodGet, "/api/sites/{siteID}", "Get site",
			"Returns a site with its buildings in visit order." + bearer,
			siteParams{}, []response{ok(SiteDetailResponse{}), failure(http.StatusNotFound)}},
		{http.MethodGet, "/api/sites/{siteID}/overview", "Overview pages",
			"Returns the ordered overview pages of a site." + bearer,
			siteParams{}, []response{ok([]OverviewPageResponse{}), failure(http.StatusNotFound)}},
		{http.MethodGet, "/api/sites/{siteID}/trivia", "Trivia questions",
			"Returns the trivia questions of a site without their answers." + bearer,
			siteParams{}, []response{ok([]QuestionResponse{}), failure(http.StatusNotFound)}},
		{http.MethodPost, "/api/sites/{siteID}/sessions", "Start game session",
			"Opens a new overview or trivia session with a zero score." + bearer,
			withParams(siteParams{}, StartSessionRequest{}),
			[]response{created(SessionResponse{}), failure(http.StatusBadRequest), failure(http.StatusNotFound)}},
		{http.MethodGet, "/api/sites/{siteID}/sessions/{sessionType}", "Current session",
			"Returns the latest session of the given type." + bearer,
			sessionParams{}, []response{ok(SessionResponse{}), failure(http.StatusNotFound)}},
		{http.MethodPost, "/api/sites/{siteID}/trivia/answers", "Submit answer",
			"Judges an answer against the stored correct option. Only the first attempt per question scores." + bearer,
			withParams(siteParams{}, AnswerRequest{}),
			[]response{ok(AnswerResponse{}), failure(http.StatusBadRequest), failure(http.StatusNotFound), failure(http.StatusConflict)}},
		{http.MethodPost, "/api/sites/{siteID}/trivia/complete", "Complete trivia",
			"Closes the trivia session, computes the percentage and awards the badge at 60% or more." + bearer,
			siteParams{}, []response{ok(TriviaOutcomeResponse{}), failure(http.StatusNotFound), failure(http.StatusConflict)}},
		{http.MethodPost, "/api/sites/{siteID}/overview/complete", "Complete overview",
			"Closes the overview session." + bearer,
			siteParams{}, []response{ok(SessionResponse{}), failure(http.StatusNotFound), failure(http.StatusConflict)}},

		{http.MethodPost, "/api/trips", "Start trip",
			"Starts a trip at the site behind a QR code, or resumes the active one." + bearer,
			StartTripRequest{}, []response{created(StartTripResponse{}), ok(StartTripResponse{}), failure(http.StatusNotFound)}},
		{http.MethodGet, "/api/trips/active", "Active trips",
			"Returns the caller's active trips with progress." + bearer,
			nil, []response{ok([]TripSummaryResponse{})}},
		{http.MethodGet, "/api/trips/history", "Trip history",
			"Returns the caller's completed trips." + bearer,
			nil, []response{ok([]TripSummaryResponse{})}},
		{http.MethodGet, "/api/trips/{tripID}/buildings", "Trip checklist",
			"Returns every building of the trip's site with its visited flag and the next building to visit." + bearer,
			tripParams{}, []response{ok(TripBuildingsResponse{}), failure(http.StatusNotFound)}},
		{http.MethodPost, "/api/trips/{tripID}/visits", "Visit building",
			"Records a building visit. The last visit completes the trip and awards the site badge." + bearer,
			withParams(tripParams{}, VisitRequest{}),
			[]response{ok(VisitResponse{}), failure(http.StatusBadRequest), failure(http.StatusNotFound), failure(http.StatusConflict)}},
		{http.MethodPost, "/api/trips/{tripID}/abandon", "Abandon trip",
			"Marks an active trip abandoned." + bearer,
			tripParams{}, []response{ok(TripResponse{}), failure(http.StatusNotFound), failure(http.StatusConflict)}},

		{http.MethodGet, "/api/me/badges", "My badges",
			"Returns the caller's earned badges, newest first." + bearer,
			nil, []response{ok([]EarnedBadgeResponse{})}},
		{http.MethodGet, "/api/me/badges/stats", "Badge stats",
			"Returns the caller's badge count and last earned time." + bearer,
			nil, []response{ok(BadgeStatsResponse{})}},
		{http.MethodGet, "/api/me/profile", "Get profile",
			"Returns the caller's display name and badge total." + bearer,
			nil, []response{ok(ProfileResponse{})}},
		{http.MethodPut, "/api/me/profile", "Update profile",
			"Sets the caller's display name." + bearer,
			ProfileRequest{}, []response{ok(ProfileResponse{}), failure(http.StatusBadRequest)}},
		{http.MethodGet, "/api/leaderboard", "Leaderboard",
			"Returns players ranked by badge count." + bearer,
			leaderboardParams{}, []response{ok([]LeaderboardEntryResponse{})}},
		{http.MethodGet, "/api/events", "SSE event stream",
			"Server-Sent Events stream of the caller's progress. Pass token as query parameter.",
			eventParams{}, []response{stream("text/event-stream")}},
		{http.MethodGet, "/ws/events", "WebSocket event stream",
			"Same progress events as /api/events over a WebSocket.",
			eventParams{}, []response{switching()}},

		{http.MethodPost, "/api/admin/login", "Admin login",
			"Authenticate with email and password. Sets admin_session cookie.",
			AdminLoginRequest{}, []response{ok(AdminMeResponse{}), failure(http.StatusUnauthorized)}},
		{http.MethodPost, "/api/admin/logout", "Admin logout",
			"Clears admin session and cookie.",
			nil, []response{{status: http.StatusOK}}},
		{http.MethodGet, "/api/admin/me", "Current admin",
			"Returns the currently authenticated admin." + cookie,
			nil, []response{ok(AdminMeResponse{}), failure(http.StatusUnauthorized)}},
		{http.MethodGet, "/api/admin/sites", "List sites (admin)",
			"Returns all sites with building counts." + cookie,
			nil, []response{ok([]SiteResponse{}), failure(http.StatusUnauthorized)}},
		{http.MethodPost, "/api/admin/sites", "Create site",
			"Creates a site with buildings, overview pages, questions and badge." + cookie,
			AdminSiteRequest{}, []response{created(AdminSiteDetail{}), failure(http.StatusBadRequest), failure(http.StatusConflict)}},
		{http.MethodGet, "/api/admin/sites/{siteID}", "Get site content",
			"Returns the full content of a site, answers included." + cookie,
			siteParams{}, []response{ok(AdminSiteDetail{}), failure(http.StatusNotFound)}},
		{http.MethodPut, "/api/admin/sites/{siteID}", "Replace site content",
			"Replaces a site's content. Buildings and questions keep their ids." + cookie,
			withParams(siteParams{}, AdminSiteRequest{}),
			[]response{ok(AdminSiteDetail{}), failure(http.StatusBadRequest), failure(http.StatusNotFound), failure(http.StatusConflict)}},
		{http.MethodDelete, "/api/admin/sites/{siteID}", "Delete site",
			"Deletes a site with its trips, sessions and badges." + cookie,
			siteParams{}, []response{{status: http.StatusOK}, failure(http.StatusNotFound)}},
		{http.MethodPost, "/api/admin/users/{userID}/badges", "Award badge",
			"Awards a site badge to a player. Awarding an owned badge is a no-op." + cookie,
			withParams(userParams{}, AwardBadgeRequest{}),
			[]response{created(BadgeAwardResponse{}), ok(BadgeAwardResponse{}), failure(http.StatusNotFound)}},
		{http.MethodPost, "/api/admin/users/{userID}/badges/reconcile", "Reconcile badge count",
			"Recomputes a player's badge counter from earned badges." + cookie,
			userParams{}, []response{ok(ReconcileResponse{})}},
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Heritage Quest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for heritage site trips, games and badges.")

	for _, op := range operations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		switch req := op.req.(type) {
		case nil:
		case []any:
			for _, part := range req {
				oc.AddReqStructure(part)
			}
		default:
			oc.AddReqStructure(req)
		}
		for _, resp := range op.resp {
			opts := append([]openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}, resp.opts...)
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
