package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lingo-lesson-service/internal/domain"
)

// Client talks to the platform backend that owns lesson content, answer
// grading, completion accounting, and heart balances. It implements the
// LessonLoader, Grader, Completer, and HeartSource roles.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// LoadLesson fetches lesson content. Options arrive without correctness
// flags; the backend keeps the answer key to itself.
func (c *Client) LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	var lesson domain.Lesson
	err := c.getJSON(ctx, "/api/lessons/"+url.PathEscape(lessonID), &lesson)
	if err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

// Grade submits a chosen option for authoritative judging.
func (c *Client) Grade(ctx context.Context, lessonID, questionID, option string) (domain.SubmissionResult, error) {
	body := map[string]string{
		"lessonId":   lessonID,
		"questionId": questionID,
		"option":     option,
	}
	var result domain.SubmissionResult
	if err := c.postJSON(ctx, "/api/challenges/grade", body, &result); err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

// CompleteLesson reports a finished lesson and its score for XP accounting.
func (c *Client) CompleteLesson(ctx context.Context, lessonID string, score int) error {
	body := map[string]any{"score": score}
	return c.postJSON(ctx, "/api/lessons/"+url.PathEscape(lessonID)+"/complete", body, nil)
}

// HeartState fetches a learner's heart balance and regeneration timestamp.
func (c *Client) HeartState(ctx context.Context, userID string) (domain.HeartState, error) {
	var state domain.HeartState
	err := c.getJSON(ctx, "/api/users/"+url.PathEscape(userID)+"/hearts", &state)
	if err != nil {
		return domain.HeartState{}, err
	}
	return state, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrLessonNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %s for %s", resp.Status, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
