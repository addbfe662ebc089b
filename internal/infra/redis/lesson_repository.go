package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"lingo-lesson-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LessonLoader fetches lesson content from a backing store (Postgres, the
// platform backend, ...).
type LessonLoader interface {
	LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
}

// LessonRepository caches whole lessons in Redis as JSON under
// lesson:{lessonID}:content and falls back to a loader on cache miss.
type LessonRepository struct {
	client *redis.Client
	loader LessonLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLessonRepository(client *redis.Client, loader LessonLoader, ttl time.Duration) *LessonRepository {
	return &LessonRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LessonRepository) GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	key := r.contentKey(lessonID)

	if raw, err := r.client.Get(ctx, key).Result(); err == nil {
		var lesson domain.Lesson
		if err := json.Unmarshal([]byte(raw), &lesson); err == nil {
			return lesson, nil
		}
		// Unparseable cache entry; fall through and reload.
	}

	result, err, _ := r.sf.Do(lessonID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Result(); err == nil {
			var lesson domain.Lesson
			if err := json.Unmarshal([]byte(raw), &lesson); err == nil {
				return lesson, nil
			}
		}

		lesson, err := r.loader.LoadLesson(ctx, lessonID)
		if err != nil {
			return domain.Lesson{}, err
		}

		if raw, err := json.Marshal(lesson); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return lesson, nil
	})
	if err != nil {
		return domain.Lesson{}, err
	}
	return result.(domain.Lesson), nil
}

func (r *LessonRepository) contentKey(lessonID string) string {
	return "lesson:" + lessonID + ":content"
}

func (r *LessonRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
