package domain

import "errors"

var (
	// ErrLessonNotFound indicates the lesson content could not be loaded.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrSessionNotFound is returned when no live session exists for a learner and lesson.
	ErrSessionNotFound = errors.New("lesson session not found")
	// ErrOutOfHearts is returned when the heart gate blocks lesson entry.
	ErrOutOfHearts = errors.New("out of hearts")
	// ErrEmptyLesson is returned when a lesson has no questions to run.
	ErrEmptyLesson = errors.New("lesson has no questions")
	// ErrNoSelection is returned when an answer is submitted without a choice.
	ErrNoSelection = errors.New("no option selected")
	// ErrOptionOutOfRange is returned when a selection does not index a real option.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrSubmissionPending is returned when a grading call is already in flight.
	ErrSubmissionPending = errors.New("submission already in flight")
	// ErrAlreadyAnswered is returned when the current question was already graded.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when continue is requested before grading.
	ErrNotAnswered = errors.New("current question not answered yet")
	// ErrSessionFinished is returned for any action on a finished session.
	ErrSessionFinished = errors.New("lesson session already finished")
)
