package app

import (
	"context"
	"log"
	"sync"

	"lingo-lesson-service/internal/domain"
)

type sessionState int

const (
	stateAwaitingSelection sessionState = iota
	stateAnswered
	stateFinished
)

const noSelection = -1

// LessonSession drives one learner through one lesson, a question at a time.
// Correct answers and index advances are checkpointed to the progress store
// before the new state becomes observable, so an abandoned session resumes at
// the last checkpoint. Answers are graded by the external grading
// collaborator; a grading failure degrades to "incorrect" rather than
// surfacing an error.
type LessonSession struct {
	userID    string
	lessonID  string
	lesson    domain.Lesson
	progress  ProgressStore
	grader    Grader
	completer Completer

	mu         sync.Mutex
	state      sessionState
	index      int
	correct    int
	selected   int
	wasCorrect bool
	submitting bool
}

// Snapshot is the externally visible view of a session, shaped for transport.
type Snapshot struct {
	LessonID      string   `json:"lessonId"`
	Title         string   `json:"title"`
	QuestionIndex int      `json:"questionIndex"`
	QuestionCount int      `json:"questionCount"`
	QuestionID    string   `json:"questionId,omitempty"`
	Prompt        string   `json:"prompt,omitempty"`
	Options       []string `json:"options,omitempty"`
	Score         int      `json:"score"`
	Answered      bool     `json:"answered"`
	Correct       bool     `json:"correct"`
	Finished      bool     `json:"finished"`
}

func newLessonSession(userID string, lesson domain.Lesson, resume domain.ProgressRecord, progress ProgressStore, grader Grader, completer Completer) *LessonSession {
	return &LessonSession{
		userID:    userID,
		lessonID:  lesson.ID,
		lesson:    lesson,
		progress:  progress,
		grader:    grader,
		completer: completer,
		index:     resume.LastIndex,
		correct:   resume.SavedScore,
		selected:  noSelection,
	}
}

// Select records or replaces the learner's choice for the current question.
// The selection stays mutable until it is submitted.
func (s *LessonSession) Select(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateFinished {
		return domain.ErrSessionFinished
	}
	if s.state != stateAwaitingSelection {
		return domain.ErrAlreadyAnswered
	}
	if s.submitting {
		return domain.ErrSubmissionPending
	}
	if option < 0 || option >= len(s.lesson.Questions[s.index].Options) {
		return domain.ErrOptionOutOfRange
	}
	s.selected = option
	return nil
}

// Submit grades the current selection. On a correct answer the score advances
// and a checkpoint is written before Submit returns. A second submit while
// grading is in flight is rejected, mirroring the disabled submit control in
// clients.
func (s *LessonSession) Submit(ctx context.Context) (domain.SubmissionResult, error) {
	s.mu.Lock()
	if s.state == stateFinished {
		s.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrSessionFinished
	}
	if s.state != stateAwaitingSelection {
		s.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrAlreadyAnswered
	}
	if s.submitting {
		s.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrSubmissionPending
	}
	if s.selected == noSelection {
		s.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrNoSelection
	}
	question := s.lesson.Questions[s.index]
	chosen := question.Options[s.selected].Text
	s.submitting = true
	s.mu.Unlock()

	result, err := s.grader.Grade(ctx, s.lessonID, question.ID, chosen)
	if err != nil {
		// Fail-safe: an unreachable grader marks the answer incorrect and
		// lets the learner move on.
		log.Printf("grading failed for lesson %s question %s: %v", s.lessonID, question.ID, err)
		result = domain.SubmissionResult{Correct: false}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.state = stateAnswered
	s.wasCorrect = result.Correct
	if result.Correct {
		s.correct++
		s.progress.Save(ctx, s.lessonID, s.index, s.correct)
	}
	return result, nil
}

// Continue advances past an answered question. On the last question it
// reports completion to the platform backend, clears the checkpoint
// unconditionally, and finishes the session. Continue returns the snapshot
// the client should render next.
func (s *LessonSession) Continue(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateFinished {
		return Snapshot{}, domain.ErrSessionFinished
	}
	if s.state != stateAnswered {
		return Snapshot{}, domain.ErrNotAnswered
	}

	if s.index+1 < len(s.lesson.Questions) {
		s.index++
		s.selected = noSelection
		s.wasCorrect = false
		s.state = stateAwaitingSelection
		s.progress.Save(ctx, s.lessonID, s.index, s.correct)
		return s.snapshotLocked(), nil
	}

	s.state = stateFinished
	if err := s.completer.CompleteLesson(ctx, s.lessonID, s.correct); err != nil {
		// Reporting completion is best-effort; the learner still finishes.
		log.Printf("completion call failed for lesson %s: %v", s.lessonID, err)
	}
	s.progress.Clear(ctx, s.lessonID)
	return s.snapshotLocked(), nil
}

// Snapshot returns the current view of the session.
func (s *LessonSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Score returns the number of correct answers so far.
func (s *LessonSession) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correct
}

// Finished reports whether the session reached its terminal state.
func (s *LessonSession) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateFinished
}

func (s *LessonSession) snapshotLocked() Snapshot {
	snap := Snapshot{
		LessonID:      s.lessonID,
		Title:         s.lesson.Title,
		QuestionIndex: s.index,
		QuestionCount: len(s.lesson.Questions),
		Score:         s.correct,
		Answered:      s.state == stateAnswered,
		Correct:       s.wasCorrect,
		Finished:      s.state == stateFinished,
	}
	if s.state != stateFinished {
		question := s.lesson.Questions[s.index]
		snap.QuestionID = question.ID
		snap.Prompt = question.Prompt
		snap.Options = question.OptionTexts()
	}
	return snap
}
