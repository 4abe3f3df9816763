package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/heritagequest/internal/cache"
	"github.com/playperu/heritagequest/internal/heritage"
)

type StartSessionRequest struct {
	SessionType string `json:"sessionType" validate:"required,oneof=overview trivia"`
}

type SessionResponse struct {
	ID          string     `json:"id"`
	SiteID      string     `json:"siteId"`
	SessionType string     `json:"sessionType"`
	Score       int        `json:"score"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type AnswerRequest struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedOption string `json:"selectedOption" validate:"required"`
	AttemptNumber  int    `json:"attemptNumber" validate:"gte=0"`
}

type AnswerResponse struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectOption string `json:"correctOption"`
	Explanation   string `json:"explanation"`
	CurrentScore  int    `json:"currentScore"`
	SessionID     string `json:"sessionId"`
}

type FinalScoreResponse struct {
	CorrectAnswers  int     `json:"correctAnswers"`
	TotalQuestions  int     `json:"totalQuestions"`
	ScorePercentage float64 `json:"scorePercentage"`
}

type TriviaOutcomeResponse struct {
	SessionID   string              `json:"sessionId"`
	FinalScore  FinalScoreResponse  `json:"finalScore"`
	BadgeEarned bool                `json:"badgeEarned"`
	Badge       *BadgeAwardResponse `json:"badge"`
}

func toSession(s heritage.GameSession) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		SiteID:      s.SiteID,
		SessionType: string(s.Type),
		Score:       s.Score,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

func handleStartSession(logger *slog.Logger, svc *heritage.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartSessionRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		sess, err := svc.StartGameSession(r.Context(), userFrom(r), chi.URLParam(r, "siteID"),
			heritage.SessionType(req.SessionType))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSession(sess))
	}
}

func handleCurrentSession(logger *slog.Logger, svc *heritage.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, found, err := svc.CurrentSession(r.Context(), userFrom(r), chi.URLParam(r, "siteID"),
			heritage.SessionType(chi.URLParam(r, "sessionType")))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, heritage.ErrSessionNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, toSession(sess))
	}
}

func handleSubmitAnswer(logger *slog.Logger, svc *heritage.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		userID := userFrom(r)
		siteID := chi.URLParam(r, "siteID")

		res, err := svc.SubmitTriviaAnswer(r.Context(), heritage.AnswerSubmission{
			UserID:         userID,
			SiteID:         siteID,
			QuestionID:     req.QuestionID,
			SelectedOption: req.SelectedOption,
			AttemptNumber:  req.AttemptNumber,
		})
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		broker.Publish(userID, Event{Type: eventAnswerRecorded, SiteID: siteID, Score: res.CurrentScore})
		writeJSON(w, http.StatusOK, AnswerResponse{
			IsCorrect:     res.IsCorrect,
			CorrectOption: res.CorrectOption,
			Explanation:   res.Explanation,
			CurrentScore:  res.CurrentScore,
			SessionID:     res.SessionID,
		})
	}
}

func handleCompleteTrivia(logger *slog.Logger, svc *heritage.Service, broker *Broker, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFrom(r)
		siteID := chi.URLParam(r, "siteID")

		out, err := svc.CompleteTriviaSession(r.Context(), userID, siteID)
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}

		broker.Publish(userID, Event{Type: eventSessionDone, SiteID: siteID, Score: out.FinalScore.CorrectAnswers})
		badgeEarned(r, broker, c, userID, out.Badge)

		writeJSON(w, http.StatusOK, TriviaOutcomeResponse{
			SessionID: out.SessionID,
			FinalScore: FinalScoreResponse{
				CorrectAnswers:  out.FinalScore.CorrectAnswers,
				TotalQuestions:  out.FinalScore.TotalQuestions,
				ScorePercentage: out.FinalScore.ScorePercentage,
			},
			BadgeEarned: out.BadgeEarned,
			Badge:       toBadgeAward(out.Badge),
		})
	}
}

func handleCompleteOverview(logger *slog.Logger, svc *heritage.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFrom(r)
		sess, err := svc.CompleteOverviewSession(r.Context(), userID, chi.URLParam(r, "siteID"))
		if err != nil {
			writeServiceError(w, logger, r, err)
			return
		}
		broker.Publish(userID, Event{Type: eventSessionDone, SiteID: sess.SiteID})
		writeJSON(w, http.StatusOK, toSession(sess))
	}
}
