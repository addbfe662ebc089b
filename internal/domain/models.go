package domain

import "time"

// Option represents a candidate answer for a question. Correct is only
// populated when lesson content is loaded from a local source; content
// fetched from the platform backend never carries it.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Question models a single-choice question. Options are in display order;
// duplicate texts are permitted and distinguished by index.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// OptionTexts returns the answer texts in display order, without the
// correctness flags.
func (q Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}
	return texts
}

// Lesson is a fixed, ordered sequence of questions; the unit of completion.
type Lesson struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// SubmissionResult is the grading verdict for one submitted answer.
type SubmissionResult struct {
	Correct bool `json:"correct"`
}

// ProgressRecord is a resumable checkpoint for one lesson.
// LastIndex is the zero-based index of the next question to resume at;
// SavedScore is the number of correct answers accumulated so far.
// Valid records satisfy 0 <= SavedScore <= LastIndex.
type ProgressRecord struct {
	LastIndex  int `json:"lastIndex"`
	SavedScore int `json:"savedScore"`
}

// HeartState is the learner's current heart balance as reported by the
// platform backend. NextRegenAt is meaningful only when Hearts is zero.
type HeartState struct {
	Hearts      int        `json:"hearts"`
	NextRegenAt *time.Time `json:"nextRegenAt"`
}
