package app

import (
	"context"
	"time"

	"lingo-lesson-service/internal/domain"
)

// ProgressStore persists per-lesson checkpoints for one learner. It never
// returns errors: an absent, corrupt, or unreachable record degrades to
// "absent" on Load, and Save/Clear are best-effort.
type ProgressStore interface {
	Load(ctx context.Context, lessonID string) (domain.ProgressRecord, bool)
	Save(ctx context.Context, lessonID string, lastIndex, savedScore int)
	Clear(ctx context.Context, lessonID string)
}

// ProgressStores hands out the checkpoint store for a learner.
type ProgressStores interface {
	For(userID string) ProgressStore
}

// LessonRepository loads lesson content (from cache/backing store).
type LessonRepository interface {
	GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
}

// Grader is the external collaborator that authoritatively judges answers.
type Grader interface {
	Grade(ctx context.Context, lessonID, questionID, option string) (domain.SubmissionResult, error)
}

// Completer reports a finished lesson (XP award etc.) to the platform backend.
type Completer interface {
	CompleteLesson(ctx context.Context, lessonID string, score int) error
}

// SessionRepository tracks live sessions, keyed by learner and lesson.
type SessionRepository interface {
	Put(userID, lessonID string, session *LessonSession)
	Get(userID, lessonID string) (*LessonSession, bool)
	Delete(userID, lessonID string)
}

// SessionService is the lesson entry point: it gates on hearts, resumes or
// starts sessions, and tracks them while they are live.
type SessionService struct {
	sessions  SessionRepository
	lessons   LessonRepository
	stores    ProgressStores
	hearts    HeartSource
	grader    Grader
	completer Completer
	now       func() time.Time
}

func NewSessionService(sessions SessionRepository, lessons LessonRepository, stores ProgressStores, hearts HeartSource, grader Grader, completer Completer) *SessionService {
	return newSessionServiceWithClock(sessions, lessons, stores, hearts, grader, completer, time.Now)
}

// newSessionServiceWithClock is test-only for deterministic gate checks.
func newSessionServiceWithClock(sessions SessionRepository, lessons LessonRepository, stores ProgressStores, hearts HeartSource, grader Grader, completer Completer, now func() time.Time) *SessionService {
	return &SessionService{
		sessions:  sessions,
		lessons:   lessons,
		stores:    stores,
		hearts:    hearts,
		grader:    grader,
		completer: completer,
		now:       now,
	}
}

// GateFor evaluates the heart gate for a learner right now. A heart-state
// fetch failure fails open; continuity matters more here than strict gating.
func (s *SessionService) GateFor(ctx context.Context, userID string) Gate {
	state, err := s.hearts.HeartState(ctx, userID)
	if err != nil {
		return Gate{Allowed: true}
	}
	return CheckHearts(state, s.now())
}

// Watcher returns a countdown watcher for a blocked learner.
func (s *SessionService) Watcher(userID string) *HeartWatcher {
	return NewHeartWatcher(s.hearts, userID)
}

// Start opens a lesson session for a learner, resuming from the saved
// checkpoint when one exists. A stale checkpoint that no longer fits the
// lesson (index past the end, or a score exceeding the index) restarts the
// session at the first question. Starting a second session for the same
// learner and lesson replaces the first; concurrent sessions race on the
// checkpoint store last-write-wins.
func (s *SessionService) Start(ctx context.Context, userID, lessonID string) (*LessonSession, error) {
	if gate := s.GateFor(ctx, userID); !gate.Allowed {
		return nil, domain.ErrOutOfHearts
	}

	lesson, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if len(lesson.Questions) == 0 {
		return nil, domain.ErrEmptyLesson
	}

	store := s.stores.For(userID)
	resume, ok := store.Load(ctx, lessonID)
	if !ok || !validResume(resume, len(lesson.Questions)) {
		resume = domain.ProgressRecord{}
	}

	session := newLessonSession(userID, lesson, resume, store, s.grader, s.completer)
	s.sessions.Put(userID, lessonID, session)
	return session, nil
}

// Get returns the live session for a learner and lesson.
func (s *SessionService) Get(userID, lessonID string) (*LessonSession, error) {
	session, ok := s.sessions.Get(userID, lessonID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Abandon drops a live session without touching its checkpoint, so the last
// saved progress remains resumable.
func (s *SessionService) Abandon(userID, lessonID string) {
	s.sessions.Delete(userID, lessonID)
}

// validResume rejects checkpoints that cannot be resumed into: a negative or
// past-the-end index (stale content), or a score the index cannot account
// for. A score of index+1 is legitimate: the correct-answer checkpoint is
// written before the index advances.
func validResume(rec domain.ProgressRecord, questionCount int) bool {
	if rec.LastIndex < 0 || rec.LastIndex >= questionCount {
		return false
	}
	if rec.SavedScore < 0 || rec.SavedScore > rec.LastIndex+1 {
		return false
	}
	return true
}
