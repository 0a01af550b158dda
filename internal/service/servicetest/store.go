// Package servicetest provides in-memory stores for exercising the service layer.
package servicetest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"campaigndash/internal/models"
	"campaigndash/internal/queue"
	"campaigndash/internal/repository"
)

type Users struct {
	mu    sync.Mutex
	byID  map[string]models.User
	order []string
}

func NewUsers(users ...models.User) *Users {
	u := &Users{byID: make(map[string]models.User)}
	for _, user := range users {
		_ = u.Create(context.Background(), user)
	}
	return u
}

func (u *Users) Create(ctx context.Context, user models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	u.byID[user.ID] = user
	u.order = append(u.order, user.ID)
	return nil
}

func (u *Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (u *Users) GetByID(ctx context.Context, id string) (models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.User, 0, len(u.order))
	for _, id := range u.order {
		if user, ok := u.byID[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u *Users) MarkVerified(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Verified = true
	u.byID[id] = user
	return nil
}

func (u *Users) DeleteByEmail(ctx context.Context, email string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, user := range u.byID {
		if user.Email == email {
			delete(u.byID, id)
			return nil
		}
	}
	return repository.ErrUserNotFound
}

type Sessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]models.Session)}
}

func (s *Sessions) Create(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID] = session
	return nil
}

func (s *Sessions) Rotate(ctx context.Context, id string, oldHash, newHash []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byID[id]
	if !ok || !bytes.Equal(session.RefreshTokenHash, oldHash) {
		return repository.ErrSessionNotFound
	}
	session.RefreshTokenHash = newHash
	session.ExpiresAt = expiresAt
	s.byID[id] = session
	return nil
}

func (s *Sessions) CountByUser(ctx context.Context, userID string) (int, error) {
	return len(s.ByUser(userID)), nil
}

func (s *Sessions) DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error {
	sessions := s.ByUser(userID)
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := keepLatest; i < len(sessions); i++ {
		delete(s.byID, sessions[i].ID)
	}
	return nil
}

func (s *Sessions) GetByID(ctx context.Context, id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *Sessions) FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.byID {
		if bytes.Equal(session.RefreshTokenHash, refreshHash) {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (s *Sessions) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Sessions) Touch(ctx context.Context, sessionID string, ip string, userAgent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byID[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastSeenAt = time.Now()
	session.IPAddress = ip
	session.UserAgent = userAgent
	s.byID[sessionID] = session
	return nil
}

// ByUser returns the user's sessions in no particular order.
func (s *Sessions) ByUser(userID string) []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Session
	for _, session := range s.byID {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out
}

// Queue records enqueued tasks.
type Queue struct {
	mu    sync.Mutex
	Tasks []queue.Task
}

func (q *Queue) Enqueue(ctx context.Context, task queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Tasks = append(q.Tasks, task)
	return nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Tasks)
}

// Snapshot copies the recorded tasks.
func (q *Queue) Snapshot() []queue.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Task(nil), q.Tasks...)
}

// Limiter allows Max attempts per key.
type Limiter struct {
	mu     sync.Mutex
	Max    int
	counts map[string]int
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.Max, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}
