package memory

import (
	"context"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/domain"
)

// Grader judges answers against locally loaded lesson content. Used in
// self-hosted deployments where no separate grading service exists; content
// loaded through the repository must carry correctness flags.
type Grader struct {
	lessons app.LessonRepository
}

func NewGrader(lessons app.LessonRepository) *Grader {
	return &Grader{lessons: lessons}
}

func (g *Grader) Grade(ctx context.Context, lessonID, questionID, option string) (domain.SubmissionResult, error) {
	lesson, err := g.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	var question *domain.Question
	for i := range lesson.Questions {
		if lesson.Questions[i].ID == questionID {
			question = &lesson.Questions[i]
			break
		}
	}
	if question == nil {
		return domain.SubmissionResult{}, domain.ErrLessonNotFound
	}

	for _, opt := range question.Options {
		if opt.Text == option {
			return domain.SubmissionResult{Correct: opt.Correct}, nil
		}
	}
	return domain.SubmissionResult{Correct: false}, nil
}

// NoopCompleter discards completion reports. Self-hosted mode has no XP
// ledger to notify.
type NoopCompleter struct{}

func (NoopCompleter) CompleteLesson(context.Context, string, int) error { return nil }

// StaticHeartSource reports a fixed heart balance, effectively disabling the
// gate when configured with a positive count.
type StaticHeartSource struct {
	state domain.HeartState
}

func NewStaticHeartSource(state domain.HeartState) *StaticHeartSource {
	return &StaticHeartSource{state: state}
}

func (s *StaticHeartSource) HeartState(context.Context, string) (domain.HeartState, error) {
	return s.state, nil
}
