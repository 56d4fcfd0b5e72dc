package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"treecare/internal/guide"
	"treecare/internal/schedule"
)

var statusIcons = map[guide.Status]string{
	guide.NotStarted: "⚪",
	guide.InProgress: "🟡",
	guide.Completed:  "✅",
}

func formatGuideList(guides []guide.Guide) string {
	if len(guides) == 0 {
		return "No guides yet."
	}
	var sb strings.Builder
	sb.WriteString("📚 *Planting Guides*\n\n")
	for i, g := range guides {
		fmt.Fprintf(&sb, "%d. %s *%s* (%s, %s)\n", i+1, statusIcons[guide.StatusOf(g)], g.Title, g.Difficulty, g.EstimatedTime)
	}
	sb.WriteString("\nOpen one with /guide <number>.")
	return sb.String()
}

func formatGuide(g guide.Guide) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌳 *%s*\n_%s · %s · %s_\n\n", g.Title, g.TreeType, g.Difficulty, g.EstimatedTime)
	for _, s := range g.Steps {
		mark := "▫️"
		if s.IsCompleted {
			mark = "✅"
		} else if g.UserProgress.IsStarted && s.StepNumber == g.UserProgress.CurrentStep {
			mark = "👉"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%s)\n", mark, s.StepNumber, s.Title, s.EstimatedTime)
	}

	switch guide.StatusOf(g) {
	case guide.Completed:
		sb.WriteString("\n🎉 Guide completed!")
	case guide.InProgress:
		fmt.Fprintf(&sb, "\nProgress: %d%%", guide.ProgressPercent(g))
	default:
		sb.WriteString("\nNot started yet.")
	}
	return sb.String()
}

// guideKeyboard offers the one action that moves the guide forward.
// Callback data stays well under Telegram's 64 byte limit for uuid ids.
func guideKeyboard(g guide.Guide) *tgbotapi.InlineKeyboardMarkup {
	var button tgbotapi.InlineKeyboardButton
	switch guide.StatusOf(g) {
	case guide.NotStarted:
		button = tgbotapi.NewInlineKeyboardButtonData("▶️ Start", "start|"+g.ID)
	case guide.InProgress:
		step := g.UserProgress.CurrentStep
		button = tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("✅ Step %d done", step),
			fmt.Sprintf("done|%s|%d", g.ID, step),
		)
	default:
		button = tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", "reset|"+g.ID)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button))
	return &kb
}

func formatTasks(overdue, upcoming []schedule.Task) string {
	if len(overdue) == 0 && len(upcoming) == 0 {
		return "📅 Nothing scheduled. Add tasks with `treecare tasks add`."
	}
	var sb strings.Builder
	if len(overdue) > 0 {
		sb.WriteString("⚠️ *Overdue*\n")
		for _, t := range overdue {
			fmt.Fprintf(&sb, "• %s (%s, due %s)\n", t.Title, t.Priority, t.DueDate.Format("Jan 2"))
		}
		sb.WriteString("\n")
	}
	if len(upcoming) > 0 {
		sb.WriteString("📅 *Upcoming*\n")
		for _, t := range upcoming {
			fmt.Fprintf(&sb, "• %s (%s, %s)\n", t.Title, t.Priority, t.DueDate.Format("Mon Jan 2 15:04"))
		}
	}
	return sb.String()
}
