// Package telegram serves the planting guides and the advisor over a
// Telegram webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"treecare/internal/advisor"
	"treecare/internal/app"
	"treecare/internal/catalog"
	"treecare/internal/config"
	"treecare/internal/guide"
	"treecare/internal/metrics"
	"treecare/internal/schedule"
)

const (
	sessionTTL     = 24 * time.Hour
	requestTimeout = 2 * time.Minute
	// Telegram rejects longer messages.
	maxMessageRunes = 4000
)

const helpText = `🌳 *Tree Care*

/guides - list planting guides
/guide <n> - show a guide with its steps
/startguide <n> - start a guide
/done <n> <step> [notes] - mark a step done
/resetguide <n> - clear progress on a guide
/progress - guides you are working on
/tasks - overdue and upcoming tasks
/newchat - start a fresh advisor conversation

Send a link to a tree page to add it to the catalog.
Anything else goes to the tree care advisor.`

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot routes Telegram updates to the guide service and the advisor.
type Bot struct {
	api       API
	cfg       config.TelegramConfig
	dataDir   string
	guides    *guide.Service
	schedule  *schedule.Scheduler
	advisor   *advisor.Advisor
	clipper   *catalog.Clipper
	metrics   *metrics.Store
	collector *metrics.Collector
	sessions  *SessionRepository
	log       *zap.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

// Connect authorizes against the Bot API and points the webhook at cfg.WebhookURL.
func Connect(cfg config.TelegramConfig, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.WebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
	}
	log.Info("webhook set", zap.String("description", resp.Description))
	return api, nil
}

// NewBot creates a bot over the services of a.
func NewBot(api API, a *app.App, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := a.Config()
	return &Bot{
		api:       api,
		cfg:       cfg.Telegram,
		dataDir:   cfg.DataDir,
		guides:    a.Guides,
		schedule:  a.Schedule,
		advisor:   a.Advisor,
		clipper:   a.Clipper,
		metrics:   a.Metrics,
		collector: a.Collector,
		sessions:  NewSessionRepository(a.Slots, sessionTTL, log),
		log:       log,
		now:       time.Now,
	}
}

// RegisterHandlers mounts the webhook, health and Prometheus endpoints on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", b.collector.Handler())
}

// Wait blocks until every update being processed has finished.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.Warn("error parsing update", zap.Error(err))
		return
	}

	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if !b.isAllowed(q.From) {
			return
		}
		b.dispatch(func(ctx context.Context) { b.handleCallbackQuery(ctx, q) })
	case update.Message != nil:
		msg := update.Message
		if !b.isAllowed(msg.From) {
			return
		}
		b.dispatch(func(ctx context.Context) { b.processMessage(ctx, msg) })
	}
}

// dispatch answers Telegram right away and does the work in the background.
func (b *Bot) dispatch(fn func(ctx context.Context)) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if slices.Contains(b.cfg.AllowedUserIDs, from.ID) {
		return true
	}
	b.log.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
	b.sendAdminAlert(fmt.Sprintf("⚠️ Unauthorized access attempt from %d (@%s)", from.ID, from.UserName))
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImportRequest(ctx, msg.Chat.ID, text)
		return
	}
	b.handleAdvisorRequest(ctx, msg.From.ID, msg.Chat.ID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.sendMarkdown(chatID, helpText, nil)
	case "guides":
		b.handleGuides(ctx, chatID)
	case "progress":
		b.handleProgress(ctx, chatID)
	case "tasks":
		b.handleTasks(ctx, chatID)
	case "guide":
		b.withGuide(ctx, chatID, args, func(g guide.Guide) (guide.Guide, error) { return g, nil })
	case "startguide":
		b.withGuide(ctx, chatID, args, func(g guide.Guide) (guide.Guide, error) {
			return b.guides.Start(ctx, g.ID)
		})
	case "resetguide":
		b.withGuide(ctx, chatID, args, func(g guide.Guide) (guide.Guide, error) {
			return b.guides.Reset(ctx, g.ID)
		})
	case "done":
		if len(args) < 2 {
			b.sendText(chatID, "Usage: /done <guide> <step> [notes]")
			return
		}
		step, err := strconv.Atoi(args[1])
		if err != nil {
			b.sendText(chatID, "The step must be a number.")
			return
		}
		notes := strings.Join(args[2:], " ")
		b.withGuide(ctx, chatID, args[:1], func(g guide.Guide) (guide.Guide, error) {
			return b.guides.CompleteStep(ctx, g.ID, step, notes)
		})
	case "newchat":
		if err := b.sessions.Delete(ctx, msg.From.ID); err != nil {
			b.log.Warn("failed to drop chat session", zap.Error(err))
		}
		b.sendText(chatID, "Started a new conversation. What would you like to know?")
	case "metrics":
		if msg.From.ID != b.cfg.AdminUserID {
			b.sendMarkdown(chatID, "⛔ *Access Denied*: Admin only.", nil)
			return
		}
		b.handleMetricsCommand(ctx, chatID)
	default:
		b.sendText(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleGuides(ctx context.Context, chatID int64) {
	guides, err := b.guides.List(ctx)
	if err != nil {
		b.sendError(chatID, "loading guides", err)
		return
	}
	b.sendMarkdown(chatID, formatGuideList(guides), nil)
}

func (b *Bot) handleProgress(ctx context.Context, chatID int64) {
	guides, err := b.guides.InProgress(ctx)
	if err != nil {
		b.sendError(chatID, "loading guides", err)
		return
	}
	if len(guides) == 0 {
		b.sendText(chatID, "You have no guides in progress. Pick one with /guides.")
		return
	}
	var sb strings.Builder
	sb.WriteString("🌱 *In progress*\n\n")
	for _, g := range guides {
		fmt.Fprintf(&sb, "• %s: step %d of %d (%d%%)\n",
			g.Title, g.UserProgress.CurrentStep, len(g.Steps), guide.ProgressPercent(g))
	}
	b.sendMarkdown(chatID, sb.String(), nil)
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64) {
	now := b.now()
	overdue, err := b.schedule.Overdue(ctx, now)
	if err != nil {
		b.sendError(chatID, "loading tasks", err)
		return
	}
	upcoming, err := b.schedule.Upcoming(ctx, now, schedule.DefaultUpcoming)
	if err != nil {
		b.sendError(chatID, "loading tasks", err)
		return
	}
	b.sendMarkdown(chatID, formatTasks(overdue, upcoming), nil)
}

// withGuide resolves args[0] to a guide, applies fn and replies with the
// resulting guide card.
func (b *Bot) withGuide(ctx context.Context, chatID int64, args []string, fn func(guide.Guide) (guide.Guide, error)) {
	if len(args) == 0 {
		b.sendText(chatID, "Which guide? Use the number from /guides.")
		return
	}
	g, err := b.resolveGuide(ctx, args[0])
	if err != nil {
		b.sendError(chatID, "finding guide", err)
		return
	}
	g, err = fn(g)
	if err != nil {
		b.sendError(chatID, "updating guide", err)
		return
	}
	b.sendMarkdown(chatID, formatGuide(g), guideKeyboard(g))
}

// resolveGuide accepts the 1-based position shown by /guides or a guide id.
func (b *Bot) resolveGuide(ctx context.Context, ref string) (guide.Guide, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		guides, err := b.guides.List(ctx)
		if err != nil {
			return guide.Guide{}, err
		}
		if n < 1 || n > len(guides) {
			return guide.Guide{}, fmt.Errorf("%w: no guide number %d", guide.ErrNotFound, n)
		}
		return guides[n-1], nil
	}
	return b.guides.Get(ctx, ref)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(q.ID, ""))
	if q.Message == nil {
		return
	}

	parts := strings.Split(q.Data, "|")
	if len(parts) < 2 {
		return
	}
	action, id := parts[0], parts[1]

	var (
		g   guide.Guide
		err error
	)
	switch action {
	case "start":
		g, err = b.guides.Start(ctx, id)
	case "reset":
		g, err = b.guides.Reset(ctx, id)
	case "done":
		if len(parts) != 3 {
			return
		}
		var step int
		if step, err = strconv.Atoi(parts[2]); err == nil {
			g, err = b.guides.CompleteStep(ctx, id, step, "")
		}
	default:
		return
	}

	chatID, messageID := q.Message.Chat.ID, q.Message.MessageID
	if err != nil {
		b.editError(chatID, messageID, "updating guide", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatGuide(g))
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = guideKeyboard(g)
	b.send(edit)
}

func (b *Bot) handleImportRequest(ctx context.Context, chatID int64, url string) {
	if b.clipper == nil {
		b.sendText(chatID, "Importing trees needs a language model, and none is configured.")
		return
	}
	sent, err := b.api.Send(markdownMessage(chatID, "✂️ *Reading the page...*"))
	if err != nil {
		b.log.Warn("failed to send initial reply", zap.Error(err))
		return
	}

	tree, err := b.clipper.ImportURL(ctx, url)
	if err != nil {
		b.editError(chatID, sent.MessageID, "importing tree", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, "✅ Added to the catalog:\n\n"+catalog.Describe(tree))
	b.send(edit)
}

func (b *Bot) handleAdvisorRequest(ctx context.Context, userID, chatID int64, text string) {
	if text == "" {
		return
	}
	sent, err := b.api.Send(markdownMessage(chatID, "🌳 *Thinking...*"))
	if err != nil {
		b.log.Warn("failed to send initial reply", zap.Error(err))
		return
	}

	sessionID, err := b.chatSession(ctx, userID)
	if err != nil {
		b.editError(chatID, sent.MessageID, "opening chat", err)
		return
	}
	reply, err := b.advisor.Send(ctx, sessionID, text, nil)
	if err != nil {
		b.editError(chatID, sent.MessageID, "asking the advisor", err)
		return
	}
	b.send(tgbotapi.NewEditMessageText(chatID, sent.MessageID, truncate(reply.Content)))
}

// chatSession returns the advisor session for userID, opening one if the
// previous has expired or been deleted.
func (b *Bot) chatSession(ctx context.Context, userID int64) (string, error) {
	now := b.now()
	active, err := b.sessions.GetActive(ctx, userID, now)
	if err != nil {
		return "", err
	}
	if active != nil {
		_, err := b.advisor.Session(ctx, active.ChatSessionID)
		switch {
		case err == nil:
			_, err = b.sessions.Save(ctx, userID, active.ChatSessionID, now)
			return active.ChatSessionID, err
		case !errors.Is(err, advisor.ErrSessionNotFound):
			return "", err
		}
	}

	s, err := b.advisor.NewSession(ctx, advisor.General)
	if err != nil {
		return "", err
	}
	if _, err := b.sessions.Save(ctx, userID, s.ID, now); err != nil {
		return "", err
	}
	return s.ID, nil
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.metrics.GetDailyUsage(ctx, 7)
	if err != nil {
		b.sendText(chatID, "❌ Error fetching metrics.")
		return
	}
	health := metrics.GetSysHealth(b.dataDir)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")
	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}
	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	b.sendMarkdown(chatID, sb.String(), nil)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminUserID == 0 {
		return
	}
	b.sendText(b.cfg.AdminUserID, text)
}

func markdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func (b *Bot) sendMarkdown(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := markdownMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	b.send(msg)
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, doing string, err error) {
	b.log.Warn("request failed", zap.String("doing", doing), zap.Error(err))
	b.sendText(chatID, fmt.Sprintf("❌ Error %s: %v", doing, err))
}

func (b *Bot) editError(chatID int64, messageID int, doing string, err error) {
	b.log.Warn("request failed", zap.String("doing", doing), zap.Error(err))
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("❌ Error %s: %v", doing, err)))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("failed to send telegram message", zap.Error(err))
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes]) + "…"
}
