package telegram

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"treecare/internal/storage"
)

const sessionsSlot = "telegram_sessions"

// Session links a Telegram user to the advisor chat they are currently in.
type Session struct {
	UserID        int64     `json:"userId"`
	ChatSessionID string    `json:"chatSessionId"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SessionRepository persists one Session per user. A session that has not
// been used for ttl is treated as gone, so a returning user starts a fresh chat.
type SessionRepository struct {
	sessions *storage.Collection[Session]
	ttl      time.Duration

	mu sync.Mutex
}

func NewSessionRepository(store storage.SlotStore, ttl time.Duration, log *zap.Logger) *SessionRepository {
	return &SessionRepository{
		sessions: storage.NewCollection[Session](store, sessionsSlot, log),
		ttl:      ttl,
	}
}

// GetActive returns the user's unexpired session, or nil.
func (sr *SessionRepository) GetActive(ctx context.Context, userID int64, now time.Time) (*Session, error) {
	sessions, err := sr.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(sessions, func(s Session) bool { return s.UserID == userID })
	if i < 0 || !now.Before(sessions[i].ExpiresAt) {
		return nil, nil
	}
	return &sessions[i], nil
}

// Save creates or refreshes the user's session.
func (sr *SessionRepository) Save(ctx context.Context, userID int64, chatSessionID string, now time.Time) (Session, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sessions, err := sr.sessions.Load(ctx)
	if err != nil {
		return Session{}, err
	}
	s := Session{UserID: userID, ChatSessionID: chatSessionID, CreatedAt: now, ExpiresAt: now.Add(sr.ttl)}
	if i := slices.IndexFunc(sessions, func(s Session) bool { return s.UserID == userID }); i >= 0 {
		if sessions[i].ChatSessionID == chatSessionID {
			s.CreatedAt = sessions[i].CreatedAt
		}
		sessions[i] = s
	} else {
		sessions = append(sessions, s)
	}
	return s, sr.sessions.Save(ctx, sessions)
}

func (sr *SessionRepository) Delete(ctx context.Context, userID int64) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sessions, err := sr.sessions.Load(ctx)
	if err != nil {
		return err
	}
	return sr.sessions.Save(ctx, slices.DeleteFunc(sessions, func(s Session) bool { return s.UserID == userID }))
}

// CleanupExpired drops every expired session and reports how many went.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sessions, err := sr.sessions.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := len(sessions)
	sessions = slices.DeleteFunc(sessions, func(s Session) bool { return !now.Before(s.ExpiresAt) })
	if len(sessions) == n {
		return 0, nil
	}
	return n - len(sessions), sr.sessions.Save(ctx, sessions)
}
