package advisor

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/llm"
	"treecare/internal/shared"
	"treecare/internal/storage"
)

const (
	sessionsSlot = "chat_sessions"
	adviceSlot   = "advice_history"

	titleMaxChars = 30
)

const systemPrompt = `You are a knowledgeable tree care expert and arborist assistant. You help users with:
- Tree selection and planting advice
- Care and maintenance guidance
- Problem diagnosis and solutions
- Seasonal care recommendations
- Soil and environmental considerations

Provide practical, actionable advice. Keep responses concise but informative.
Always consider safety and local regulations when giving advice.`

// UsageRecorder receives the token usage of each answer.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// LatencyObserver receives the wall time of each model call.
type LatencyObserver interface {
	ObserveAdvisor(d time.Duration)
}

type Option func(*Advisor)

func WithUsageRecorder(r UsageRecorder) Option {
	return func(a *Advisor) { a.usage = r }
}

func WithLatencyObserver(o LatencyObserver) Option {
	return func(a *Advisor) { a.latency = o }
}

func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// Advisor owns chat sessions and saved advice.
type Advisor struct {
	chat     llm.ChatGenerator
	sessions *storage.Collection[ChatSession]
	advice   *storage.Collection[Advice]
	usage    UsageRecorder
	latency  LatencyObserver
	log      *zap.Logger
	now      func() time.Time

	// mu serializes read-modify-write of both slots.
	mu sync.Mutex
}

// New creates an Advisor. chat may be nil, in which case Send fails.
func New(chat llm.ChatGenerator, store storage.SlotStore, log *zap.Logger, opts ...Option) *Advisor {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Advisor{
		chat:     chat,
		sessions: storage.NewCollection[ChatSession](store, sessionsSlot, log),
		advice:   storage.NewCollection[Advice](store, adviceSlot, log),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) NewSession(ctx context.Context, category ChatCategory) (ChatSession, error) {
	if category == "" {
		category = General
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return ChatSession{}, err
	}
	now := a.now()
	s := ChatSession{
		ID:              uuid.NewString(),
		Title:           newChatTitle,
		Messages:        []ChatMessage{},
		CreatedDate:     now,
		LastMessageDate: now,
		Category:        category,
	}
	sessions = append(sessions, s)
	if err := a.sessions.Save(ctx, sessions); err != nil {
		return ChatSession{}, err
	}
	return s, nil
}

// Sessions returns every session, most recently active first.
func (a *Advisor) Sessions(ctx context.Context) ([]ChatSession, error) {
	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastMessageDate.After(sessions[j].LastMessageDate)
	})
	return sessions, nil
}

func (a *Advisor) Session(ctx context.Context, id string) (ChatSession, error) {
	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return ChatSession{}, err
	}
	i := slices.IndexFunc(sessions, func(s ChatSession) bool { return s.ID == id })
	if i < 0 {
		return ChatSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sessions[i], nil
}

func (a *Advisor) DeleteSession(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return err
	}
	n := len(sessions)
	sessions = slices.DeleteFunc(sessions, func(s ChatSession) bool { return s.ID == id })
	if len(sessions) == n {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return a.sessions.Save(ctx, sessions)
}

// ClearSession drops the messages of a session but keeps the session.
func (a *Advisor) ClearSession(ctx context.Context, id string) (ChatSession, error) {
	return a.updateSession(ctx, id, func(s *ChatSession) {
		s.Messages = []ChatMessage{}
		s.Title = newChatTitle
	})
}

// Send asks the model about text within a session and stores both sides of
// the exchange. On error the session is left as it was.
func (a *Advisor) Send(ctx context.Context, sessionID, text string, qc *Context) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	if a.chat == nil {
		return ChatMessage{}, fmt.Errorf("no language model configured")
	}
	if _, err := a.Session(ctx, sessionID); err != nil {
		return ChatMessage{}, err
	}

	start := time.Now()
	resp, err := a.chat.GenerateChat(ctx, llm.ChatPrompt{
		System: systemPrompt,
		User:   ContextualMessage(text, qc),
	})
	elapsed := time.Since(start)
	if a.latency != nil {
		a.latency.ObserveAdvisor(elapsed)
	}
	if err != nil {
		a.log.Warn("advisor request failed", zap.String("session_id", sessionID), zap.Error(err))
		return ChatMessage{}, fmt.Errorf("failed to get advice: %w", err)
	}

	a.log.Debug("advice received",
		zap.String("session_id", sessionID),
		zap.Int("tokens", resp.Usage.Total()),
		zap.Duration("latency", elapsed),
	)
	if a.usage != nil {
		meta := shared.AgentMeta{AgentName: shared.AgentAdvisor, Usage: resp.Usage, Latency: elapsed}
		if err := a.usage.RecordMeta(ctx, meta); err != nil {
			a.log.Warn("failed to record advisor usage", zap.Error(err))
		}
	}

	now := a.now()
	userMsg := ChatMessage{ID: uuid.NewString(), Content: text, IsUser: true, Timestamp: now}
	reply := ChatMessage{ID: uuid.NewString(), Content: strings.TrimSpace(resp.Content), Timestamp: now}

	_, err = a.updateSession(ctx, sessionID, func(s *ChatSession) {
		s.Messages = append(s.Messages, userMsg, reply)
		s.LastMessageDate = now
		if s.Title == newChatTitle && len(s.Messages) == 2 {
			s.Title = sessionTitle(text)
		}
	})
	if err != nil {
		return ChatMessage{}, err
	}
	return reply, nil
}

func (a *Advisor) updateSession(ctx context.Context, id string, fn func(*ChatSession)) (ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return ChatSession{}, err
	}
	i := slices.IndexFunc(sessions, func(s ChatSession) bool { return s.ID == id })
	if i < 0 {
		return ChatSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	fn(&sessions[i])
	if err := a.sessions.Save(ctx, sessions); err != nil {
		return ChatSession{}, err
	}
	return sessions[i], nil
}

// QuestionsAsked counts the user messages across every session.
func (a *Advisor) QuestionsAsked(ctx context.Context) (int, error) {
	sessions, err := a.sessions.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range sessions {
		for _, m := range s.Messages {
			if m.IsUser {
				n++
			}
		}
	}
	return n, nil
}

// ContextualMessage prefixes text with whatever the caller knows about the
// tree, location and experience of the asker.
func ContextualMessage(text string, qc *Context) string {
	if qc == nil {
		return text
	}
	var b strings.Builder
	if qc.Tree != nil {
		fmt.Fprintf(&b, "Context: I'm asking about %s (%s). ", qc.Tree.Name, qc.Tree.ScientificName)
	}
	if qc.Location != "" {
		fmt.Fprintf(&b, "I'm located in %s. ", qc.Location)
	}
	if qc.Experience != "" {
		fmt.Fprintf(&b, "My gardening experience level is %s. ", qc.Experience)
	}
	b.WriteString("Question: ")
	b.WriteString(text)
	return b.String()
}

func sessionTitle(text string) string {
	r := []rune(text)
	if len(r) <= titleMaxChars {
		return text
	}
	return string(r[:titleMaxChars]) + "..."
}

func (a *Advisor) SaveAdvice(ctx context.Context, adv Advice) (Advice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history, err := a.advice.Load(ctx)
	if err != nil {
		return Advice{}, err
	}
	if adv.ID == "" {
		adv.ID = uuid.NewString()
	}
	if adv.Timestamp.IsZero() {
		adv.Timestamp = a.now()
	}
	if adv.Rating != nil && (*adv.Rating < 1 || *adv.Rating > 5) {
		return Advice{}, fmt.Errorf("rating must be between 1 and 5, got %d", *adv.Rating)
	}
	history = append(history, adv)
	if err := a.advice.Save(ctx, history); err != nil {
		return Advice{}, err
	}
	return adv, nil
}

// AdviceHistory filters by category when one is given; otherwise it
// returns everything newest first.
func (a *Advisor) AdviceHistory(ctx context.Context, category AdviceCategory) ([]Advice, error) {
	history, err := a.advice.Load(ctx)
	if err != nil {
		return nil, err
	}
	if category != "" {
		return slices.DeleteFunc(history, func(adv Advice) bool { return adv.Category != category }), nil
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Timestamp.After(history[j].Timestamp) })
	return history, nil
}
