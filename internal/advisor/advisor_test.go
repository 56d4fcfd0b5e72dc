package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/catalog"
	"treecare/internal/llm"
	"treecare/internal/shared"
	"treecare/internal/storage"
)

type fakeChat struct {
	reply   string
	err     error
	prompts []llm.ChatPrompt
}

func (f *fakeChat) GenerateChat(_ context.Context, p llm.ChatPrompt) (llm.ContentResponse, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return llm.ContentResponse{}, f.err
	}
	return llm.ContentResponse{
		Content: f.reply,
		Usage:   shared.TokenUsage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42, Model: "fake"},
	}, nil
}

type usageSpy struct{ metas []shared.AgentMeta }

func (u *usageSpy) RecordMeta(_ context.Context, m shared.AgentMeta) error {
	u.metas = append(u.metas, m)
	return nil
}

type latencySpy struct{ calls int }

func (l *latencySpy) ObserveAdvisor(time.Duration) { l.calls++ }

func fixedClock() func() time.Time {
	t := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestAdvisor_Send(t *testing.T) {
	ctx := context.Background()
	chat := &fakeChat{reply: "  Water deeply once a week.  "}
	usage := &usageSpy{}
	latency := &latencySpy{}
	a := New(chat, storage.NewMemoryStore(), nil,
		WithUsageRecorder(usage), WithLatencyObserver(latency), WithClock(fixedClock()))

	s, err := a.NewSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, General, s.Category)
	assert.Equal(t, "New Chat", s.Title)

	question := "How often should I water a young maple tree in summer?"
	reply, err := a.Send(ctx, s.ID, question, &Context{Location: "Ohio", Experience: Beginner})
	require.NoError(t, err)
	assert.Equal(t, "Water deeply once a week.", reply.Content)
	assert.False(t, reply.IsUser)

	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0].System, "arborist")
	assert.Equal(t,
		"I'm located in Ohio. My gardening experience level is Beginner. Question: "+question,
		chat.prompts[0].User)

	got, err := a.Session(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.True(t, got.Messages[0].IsUser)
	assert.Equal(t, "How often should I water a you...", got.Title)

	require.Len(t, usage.metas, 1)
	assert.Equal(t, "tree_advisor", usage.metas[0].AgentName)
	assert.Equal(t, 42, usage.metas[0].Usage.TotalTokens)
	assert.Equal(t, 1, latency.calls)

	_, err = a.Send(ctx, s.ID, "And in winter?", nil)
	require.NoError(t, err)
	got, err = a.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 4)
	assert.Equal(t, "How often should I water a you...", got.Title, "title is set only once")
}

func TestAdvisor_SendFailureLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	chat := &fakeChat{err: errors.New("rate limited")}
	a := New(chat, storage.NewMemoryStore(), nil)

	s, err := a.NewSession(ctx, Pruning)
	require.NoError(t, err)

	_, err = a.Send(ctx, s.ID, "When do I prune?", nil)
	require.Error(t, err)
	assert.Len(t, chat.prompts, 1, "no retries")

	got, err := a.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.Equal(t, "New Chat", got.Title)
}

func TestAdvisor_SendValidation(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeChat{reply: "ok"}, storage.NewMemoryStore(), nil)

	_, err := a.Send(ctx, "whatever", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = a.Send(ctx, "missing", "hello", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	noModel := New(nil, storage.NewMemoryStore(), nil)
	s, err := noModel.NewSession(ctx, General)
	require.NoError(t, err)
	_, err = noModel.Send(ctx, s.ID, "hello", nil)
	assert.Error(t, err)
}

func TestAdvisor_SessionsLifecycle(t *testing.T) {
	ctx := context.Background()
	a := New(&fakeChat{reply: "ok"}, storage.NewMemoryStore(), nil, WithClock(fixedClock()))

	first, err := a.NewSession(ctx, Care)
	require.NoError(t, err)
	second, err := a.NewSession(ctx, Care)
	require.NoError(t, err)

	_, err = a.Send(ctx, first.ID, "hi", nil)
	require.NoError(t, err)

	sessions, err := a.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID, "most recently active first")

	cleared, err := a.ClearSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Messages)

	require.NoError(t, a.DeleteSession(ctx, second.ID))
	assert.ErrorIs(t, a.DeleteSession(ctx, second.ID), ErrSessionNotFound)
	_, err = a.ClearSession(ctx, second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestContextualMessage(t *testing.T) {
	assert.Equal(t, "plain", ContextualMessage("plain", nil))

	oak := &catalog.Tree{Name: "Red Oak", ScientificName: "Quercus rubra"}
	assert.Equal(t,
		"Context: I'm asking about Red Oak (Quercus rubra). Question: soil?",
		ContextualMessage("soil?", &Context{Tree: oak}))
	assert.Equal(t, "Question: soil?", ContextualMessage("soil?", &Context{}))
}

func TestAdvisor_AdviceHistory(t *testing.T) {
	ctx := context.Background()
	a := New(nil, storage.NewMemoryStore(), nil, WithClock(fixedClock()))

	_, err := a.SaveAdvice(ctx, Advice{Question: "q1", Answer: "a1", Category: CareTips})
	require.NoError(t, err)
	_, err = a.SaveAdvice(ctx, Advice{Question: "q2", Answer: "a2", Category: PruningAdvice})
	require.NoError(t, err)
	_, err = a.SaveAdvice(ctx, Advice{Question: "q3", Answer: "a3", Category: CareTips})
	require.NoError(t, err)

	all, err := a.AdviceHistory(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q3", all[0].Question)

	care, err := a.AdviceHistory(ctx, CareTips)
	require.NoError(t, err)
	require.Len(t, care, 2)
	assert.Equal(t, "q1", care[0].Question)

	bad := 9
	_, err = a.SaveAdvice(ctx, Advice{Question: "q", Rating: &bad})
	assert.Error(t, err)
}

// cannedChat answers every prompt the same way and keeps no state.
type cannedChat string

func (c cannedChat) GenerateChat(context.Context, llm.ChatPrompt) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: string(c)}, nil
}

// slowStore widens the window between reading and writing a slot.
type slowStore struct {
	storage.SlotStore
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, slot string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.SlotStore.Get(ctx, slot)
}

func TestAdvisor_ConcurrentSendsKeepEveryExchange(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	a := New(cannedChat("Stake it loosely."), slowStore{SlotStore: storage.NewMemoryStore(), delay: 2 * time.Millisecond}, nil,
		WithClock(func() time.Time { return now }))

	s, err := a.NewSession(ctx, General)
	require.NoError(t, err)

	const questions = 6
	var wg sync.WaitGroup
	for i := range questions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Send(ctx, s.ID, fmt.Sprintf("question %d", i), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := a.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2*questions)

	asked, err := a.QuestionsAsked(ctx)
	require.NoError(t, err)
	assert.Equal(t, questions, asked)
}
