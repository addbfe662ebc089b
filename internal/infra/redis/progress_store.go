package redis

import (
	"context"
	"encoding/json"
	"time"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProgressStores hands out Redis-backed checkpoint stores, one hash per
// learner: HSET progress:{userID} lesson_progress_{lessonID} {"lastIndex":n,"savedScore":m}.
// The hash TTL is refreshed on every save so abandoned checkpoints age out.
type ProgressStores struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStores(client *redis.Client, ttl time.Duration) *ProgressStores {
	return &ProgressStores{client: client, ttl: ttl}
}

func (p *ProgressStores) For(userID string) app.ProgressStore {
	return &ProgressStore{client: p.client, key: "progress:" + userID, ttl: p.ttl}
}

// ProgressStore persists one learner's checkpoints. All operations are
// best-effort: a missing, corrupt, or unreachable record loads as absent and
// the session starts fresh.
type ProgressStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (s *ProgressStore) Load(ctx context.Context, lessonID string) (domain.ProgressRecord, bool) {
	raw, err := s.client.HGet(ctx, s.key, field(lessonID)).Result()
	if err != nil {
		return domain.ProgressRecord{}, false
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.ProgressRecord{}, false
	}
	return rec, true
}

func (s *ProgressStore) Save(ctx context.Context, lessonID string, lastIndex, savedScore int) {
	raw, err := json.Marshal(domain.ProgressRecord{LastIndex: lastIndex, SavedScore: savedScore})
	if err != nil {
		return
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key, field(lessonID), string(raw))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *ProgressStore) Clear(ctx context.Context, lessonID string) {
	_ = s.client.HDel(ctx, s.key, field(lessonID)).Err()
}

func field(lessonID string) string {
	return "lesson_progress_" + lessonID
}
