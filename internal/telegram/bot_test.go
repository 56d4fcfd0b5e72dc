package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/app"
	"treecare/internal/config"
	"treecare/internal/llm"
	"treecare/internal/schedule"
	"treecare/internal/shared"
	"treecare/internal/storage"
)

const (
	adminID = int64(42)
	userID  = int64(7)
)

type fakeAPI struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	var u tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) lastText() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type fakeLLM struct{}

func (fakeLLM) GenerateContent(context.Context, string) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: "{}"}, nil
}

func (fakeLLM) GenerateChat(_ context.Context, p llm.ChatPrompt) (llm.ContentResponse, error) {
	return llm.ContentResponse{
		Content: "Mulch two inches deep, away from the trunk.",
		Usage:   shared.TokenUsage{PromptTokens: 20, CompletionTokens: 10, Model: "fake"},
	}, nil
}

func (fakeLLM) Close() error { return nil }

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *app.App) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Metrics.DBPath = filepath.Join(cfg.DataDir, "metrics.db")
	cfg.Telegram.AllowedUserIDs = []int64{adminID, userID}
	cfg.Telegram.AdminUserID = adminID

	a, err := app.New(context.Background(), cfg, nil, app.WithLLM(fakeLLM{}))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	api := &fakeAPI{}
	return NewBot(api, a, nil), api, a
}

func commandMsg(from int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func textMsg(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: from},
		Text: text,
	}
}

func TestGuideCommands(t *testing.T) {
	ctx := context.Background()
	b, api, a := newTestBot(t)

	b.processMessage(ctx, commandMsg(userID, "/guides"))
	assert.Contains(t, api.lastText(), "Planting Guides")
	assert.Contains(t, api.lastText(), "1. ⚪")

	guides, err := a.Guides.List(ctx)
	require.NoError(t, err)
	first := guides[0]

	b.processMessage(ctx, commandMsg(userID, "/startguide 1"))
	assert.Contains(t, api.lastText(), "👉 1.")
	msg, ok := api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	kb, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "done|"+first.ID+"|1", *kb.InlineKeyboard[0][0].CallbackData)

	b.processMessage(ctx, commandMsg(userID, "/done 1 1 loosened the roots"))
	assert.Contains(t, api.lastText(), "✅ 1.")

	got, err := a.Guides.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "loosened the roots", got.Steps[0].Notes)

	b.processMessage(ctx, commandMsg(userID, "/progress"))
	assert.Contains(t, api.lastText(), "step 2 of 8 (13%)")

	b.processMessage(ctx, commandMsg(userID, "/guide 1"))
	assert.Contains(t, api.lastText(), "Progress: 13%")

	b.processMessage(ctx, commandMsg(userID, "/resetguide "+first.ID))
	assert.Contains(t, api.lastText(), "Not started yet.")

	b.processMessage(ctx, commandMsg(userID, "/guide 99"))
	assert.Contains(t, api.lastText(), "Error finding guide")

	b.processMessage(ctx, commandMsg(userID, "/done 1 x"))
	assert.Equal(t, "The step must be a number.", api.lastText())
}

func TestTasksCommand(t *testing.T) {
	ctx := context.Background()
	b, api, a := newTestBot(t)

	b.processMessage(ctx, commandMsg(userID, "/tasks"))
	assert.Contains(t, api.lastText(), "Nothing scheduled")

	now := time.Now()
	_, err := a.Schedule.AddTask(ctx, schedule.Task{Title: "Stake the maple", DueDate: now.Add(-24 * time.Hour), Priority: schedule.High})
	require.NoError(t, err)
	_, err = a.Schedule.AddTask(ctx, schedule.Task{Title: "Water young oaks", DueDate: now.Add(24 * time.Hour)})
	require.NoError(t, err)

	b.processMessage(ctx, commandMsg(userID, "/tasks"))
	text := api.lastText()
	assert.Contains(t, text, "*Overdue*\n• Stake the maple (High")
	assert.Contains(t, text, "*Upcoming*\n• Water young oaks (Medium")
}

func TestCallbackQuery(t *testing.T) {
	ctx := context.Background()
	b, api, a := newTestBot(t)

	guides, err := a.Guides.List(ctx)
	require.NoError(t, err)
	id := guides[1].ID
	message := &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: userID}}

	b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{ID: "q1", From: &tgbotapi.User{ID: userID}, Message: message, Data: "start|" + id})
	edit, ok := api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 55, edit.MessageID)
	assert.Contains(t, edit.Text, "👉 1.")

	b.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{ID: "q2", From: &tgbotapi.User{ID: userID}, Message: message, Data: "done|" + id + "|1"})
	assert.Contains(t, api.lastText(), "✅ 1.")

	g, err := a.Guides.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, g.UserProgress.CompletedSteps)
}

func TestAdvisorConversation(t *testing.T) {
	ctx := context.Background()
	b, api, a := newTestBot(t)

	b.processMessage(ctx, textMsg(userID, "How much mulch around a young oak?"))
	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Thinking")
	assert.Equal(t, "Mulch two inches deep, away from the trunk.", texts[1])

	b.processMessage(ctx, textMsg(userID, "And for a pine?"))
	sessions, err := a.Advisor.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1, "follow-ups stay in the same chat")
	assert.Len(t, sessions[0].Messages, 4)

	b.processMessage(ctx, commandMsg(userID, "/newchat"))
	b.processMessage(ctx, textMsg(userID, "Best time to prune apples?"))
	sessions, err = a.Advisor.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestMetricsAdminOnly(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	b.processMessage(ctx, commandMsg(userID, "/metrics"))
	assert.Contains(t, api.lastText(), "Access Denied")

	b.processMessage(ctx, commandMsg(adminID, "/metrics"))
	assert.Contains(t, api.lastText(), "Usage & Health Report")
}

func TestWebhook(t *testing.T) {
	b, api, _ := newTestBot(t)
	mux := http.NewServeMux()
	b.RegisterHandlers(mux)

	post := func(u tgbotapi.Update) {
		body, err := json.Marshal(u)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body)))
		b.Wait()
	}

	post(tgbotapi.Update{Message: commandMsg(999, "/help")})
	texts := api.texts()
	require.Len(t, texts, 1, "only the admin alert is sent")
	assert.Contains(t, texts[0], "Unauthorized access attempt from 999")

	post(tgbotapi.Update{Message: commandMsg(userID, "/help")})
	assert.Equal(t, helpText, api.lastText())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(storage.NewMemoryStore(), time.Hour, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := repo.GetActive(ctx, userID, now)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = repo.Save(ctx, userID, "chat-1", now)
	require.NoError(t, err)
	_, err = repo.Save(ctx, adminID, "chat-2", now.Add(-2*time.Hour))
	require.NoError(t, err)

	s, err = repo.GetActive(ctx, userID, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "chat-1", s.ChatSessionID)

	s, err = repo.GetActive(ctx, userID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, s, "expired")

	n, err := repo.CleanupExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, userID))
	s, err = repo.GetActive(ctx, userID, now)
	require.NoError(t, err)
	assert.Nil(t, s)
}
