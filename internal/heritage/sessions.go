package heritage

import (
	"context"
	"strings"
)

type AnswerSubmission struct {
	UserID         string
	SiteID         string
	QuestionID     string
	SelectedOption string
	AttemptNumber  int
}

type AnswerResult struct {
	IsCorrect     bool
	CorrectOption string
	Explanation   string
	CurrentScore  int
	SessionID     string
}

type TriviaOutcome struct {
	SessionID   string
	FinalScore  FinalScore
	BadgeEarned bool
	Badge       *BadgeAward
}

// StartGameSession opens a new scoring session. Older sessions of the same
// type are kept as history.
func (s *Service) StartGameSession(ctx context.Context, userID, siteID string, typ SessionType) (GameSession, error) {
	if strings.TrimSpace(userID) == "" {
		return GameSession{}, ErrUserRequired
	}
	if !typ.Valid() {
		return GameSession{}, ErrInvalidSessionType
	}

	var out GameSession
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, ok, err := tx.SiteByID(ctx, siteID); err != nil {
			return err
		} else if !ok {
			return ErrSiteNotFound
		}
		var err error
		out, err = s.openSession(ctx, tx, userID, siteID, typ)
		return err
	})
	return out, err
}

func (s *Service) openSession(ctx context.Context, tx Tx, userID, siteID string, typ SessionType) (GameSession, error) {
	now := s.now()
	if err := tx.EnsureProfile(ctx, userID, now); err != nil {
		return GameSession{}, err
	}
	sess := GameSession{
		ID:        s.newID(),
		UserID:    userID,
		SiteID:    siteID,
		Type:      typ,
		StartedAt: now,
	}
	if err := tx.InsertSession(ctx, sess); err != nil {
		return GameSession{}, err
	}
	return sess, nil
}

// CurrentSession returns the latest session of the given type, open or not.
func (s *Service) CurrentSession(ctx context.Context, userID, siteID string, typ SessionType) (GameSession, bool, error) {
	if !typ.Valid() {
		return GameSession{}, false, ErrInvalidSessionType
	}
	var (
		out   GameSession
		found bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, found, err = tx.LatestSession(ctx, userID, siteID, typ, false)
		return err
	})
	return out, found, err
}

// SubmitTriviaAnswer judges an answer against the stored question and
// records it in the user's open trivia session. Only the first attempt at a
// question can add to the score; replaying the same attempt returns the
// recorded verdict.
func (s *Service) SubmitTriviaAnswer(ctx context.Context, sub AnswerSubmission) (AnswerResult, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return AnswerResult{}, ErrUserRequired
	}
	selected, ok := NormalizeOption(sub.SelectedOption)
	if !ok {
		return AnswerResult{}, ErrInvalidOption
	}
	attempt := sub.AttemptNumber
	if attempt < 1 {
		attempt = 1
	}

	var out AnswerResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		q, ok, err := tx.TriviaQuestion(ctx, sub.QuestionID)
		if err != nil {
			return err
		}
		if !ok || q.SiteID != sub.SiteID {
			return ErrQuestionNotFound
		}
		correctOption, _ := NormalizeOption(q.CorrectOption)

		sess, ok, err := tx.LatestSession(ctx, sub.UserID, sub.SiteID, SessionTrivia, true)
		if err != nil {
			return err
		}
		if !ok {
			if sess, err = s.openSession(ctx, tx, sub.UserID, sub.SiteID, SessionTrivia); err != nil {
				return err
			}
		}

		out = AnswerResult{
			CorrectOption: correctOption,
			Explanation:   q.Explanation,
			CurrentScore:  sess.Score,
			SessionID:     sess.ID,
		}

		prior, ok, err := tx.TriviaAnswer(ctx, sess.ID, q.ID, attempt)
		if err != nil {
			return err
		}
		if ok {
			out.IsCorrect = prior.IsCorrect
			return nil
		}

		answeredBefore, err := tx.HasAnswer(ctx, sess.ID, q.ID)
		if err != nil {
			return err
		}

		out.IsCorrect = Judge(q, selected)
		inserted, err := tx.InsertTriviaAnswer(ctx, TriviaAnswer{
			SessionID:      sess.ID,
			UserID:         sub.UserID,
			SiteID:         sub.SiteID,
			QuestionID:     q.ID,
			SelectedOption: selected,
			IsCorrect:      out.IsCorrect,
			AttemptNumber:  attempt,
			AnsweredAt:     s.now(),
		})
		if err != nil {
			return err
		}

		if inserted && !answeredBefore && out.IsCorrect {
			out.CurrentScore, err = tx.AddSessionScore(ctx, sess.ID, 1)
		}
		return err
	})
	return out, err
}

// CompleteTriviaSession closes the user's open trivia session and awards the
// site badge when the score reaches PassPercentage. A failing score is a
// normal outcome.
func (s *Service) CompleteTriviaSession(ctx context.Context, userID, siteID string) (TriviaOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return TriviaOutcome{}, ErrUserRequired
	}

	var out TriviaOutcome
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		out = TriviaOutcome{}

		sess, ok, err := tx.LatestSession(ctx, userID, siteID, SessionTrivia, true)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoActiveSession
		}
		out.SessionID = sess.ID

		correct, total, err := tx.TallySession(ctx, sess.ID)
		if err != nil {
			return err
		}
		out.FinalScore = NewFinalScore(correct, total)

		closed, err := tx.CompleteSession(ctx, sess.ID, s.now())
		if err != nil {
			return err
		}
		if !closed {
			return ErrNoActiveSession
		}

		if !out.FinalScore.Passed() {
			return nil
		}
		award, err := awardBadge(ctx, tx, s, userID, siteID)
		if err != nil {
			return err
		}
		out.BadgeEarned = true
		out.Badge = &award
		return nil
	})
	return out, err
}

// CompleteOverviewSession closes the user's open overview session.
func (s *Service) CompleteOverviewSession(ctx context.Context, userID, siteID string) (GameSession, error) {
	if strings.TrimSpace(userID) == "" {
		return GameSession{}, ErrUserRequired
	}

	var out GameSession
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		sess, ok, err := tx.LatestSession(ctx, userID, siteID, SessionOverview, true)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoActiveSession
		}
		now := s.now()
		closed, err := tx.CompleteSession(ctx, sess.ID, now)
		if err != nil {
			return err
		}
		if !closed {
			return ErrNoActiveSession
		}
		sess.CompletedAt = &now
		out = sess
		return nil
	})
	return out, err
}
