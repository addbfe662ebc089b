package memory

import (
	"sync"

	"lingo-lesson-service/internal/app"
)

// SessionRepository is an in-memory implementation of app.SessionRepository.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*app.LessonSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*app.LessonSession)}
}

func (r *SessionRepository) Put(userID, lessonID string, session *app.LessonSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[key(userID, lessonID)] = session
}

func (r *SessionRepository) Get(userID, lessonID string) (*app.LessonSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[key(userID, lessonID)]
	return session, ok
}

func (r *SessionRepository) Delete(userID, lessonID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key(userID, lessonID))
}

func key(userID, lessonID string) string {
	return userID + ":" + lessonID
}
