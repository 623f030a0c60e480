// Package telegram is the chat front-end: grocery lists, plan edits and recipe clipping over a Telegram webhook.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grocery-planner/internal/app"
	"grocery-planner/internal/config"
	"grocery-planner/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const requestTimeout = 2 * time.Minute

// Bot wraps the Telegram API and the application services.
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *app.App
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, application *app.App, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("response", resp.Description))

	return &Bot{
		api:    api,
		app:    application,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !allowed(b.cfg.TelegramAllowedUserIDs, update.Message.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", update.Message.From.ID),
			zap.String("username", update.Message.From.UserName),
		)
		return
	}

	go b.processMessage(update.Message)
}

func allowed(ids []int64, id int64) bool {
	for _, allowedID := range ids {
		if allowedID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	userID := strconv.FormatInt(msg.From.ID, 10)
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClip(ctx, msg.Chat.ID, text)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "grocery":
		b.handleGrocery(ctx, msg.Chat.ID, userID, args)
	case "add":
		b.handleAdd(ctx, msg.Chat.ID, userID, args)
	case "custom":
		b.handleCustom(ctx, msg.Chat.ID, userID, args)
	case "find":
		b.handleFind(ctx, msg.Chat.ID, args)
	case "plan":
		b.handlePlan(ctx, msg.Chat.ID, userID, args)
	case "share":
		b.handleShare(ctx, msg.Chat.ID, userID, args)
	case "nutrition":
		b.handleNutrition(ctx, msg.Chat.ID, userID, args)
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleGrocery(ctx context.Context, chatID int64, userID, args string) {
	day, err := parseDay(args, b.now())
	if err != nil {
		b.replyError(chatID, "Invalid date", err)
		return
	}
	list, err := b.app.GroceryList(ctx, userID, day)
	if err != nil {
		b.logger.Error("failed to build grocery list", zap.String("user_id", userID), zap.Error(err))
		b.replyError(chatID, "Error building grocery list", err)
		return
	}
	b.reply(chatID, formatList(list))
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, userID, args string) {
	description, quantity, unit, err := parseAddArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: `/add description[, quantity[, unit]]`")
		return
	}
	item, err := b.app.AddCustom(ctx, userID, description, quantity, unit)
	if err != nil {
		b.replyError(chatID, "Error adding item", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Added *%s* to %s.", escape(item.Description), escape(string(item.Aisle))))
}

func (b *Bot) handleCustom(ctx context.Context, chatID int64, userID, args string) {
	action, id, err := parseCustomArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: `/custom check|uncheck|remove item-id`")
		return
	}
	if action == "remove" {
		err = b.app.RemoveCustom(ctx, userID, id)
	} else {
		err = b.app.CheckCustom(ctx, userID, id, action == "check")
	}
	if err != nil {
		b.replyError(chatID, "Error updating item", err)
		return
	}
	b.reply(chatID, "✅ List updated.")
}

func (b *Bot) handleFind(ctx context.Context, chatID int64, query string) {
	if query == "" {
		b.reply(chatID, "Usage: `/find ingredient`")
		return
	}
	foods, err := b.app.SearchIngredients(ctx, query)
	if err != nil {
		b.replyError(chatID, "Search failed", err)
		return
	}
	if len(foods) == 0 {
		b.reply(chatID, "No ingredients found.")
		return
	}
	var sb strings.Builder
	sb.WriteString("🔎 *Ingredients*\n\n")
	for _, f := range foods {
		fmt.Fprintf(&sb, "• %s\n", escape(f.Description))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		plan, err := b.app.Plan(ctx, userID)
		if err != nil {
			b.replyError(chatID, "Error reading plan", err)
			return
		}
		b.reply(chatID, formatPlan(plan, weekOf(b.now())))
		return
	}

	if len(fields) != 4 || (fields[0] != "add" && fields[0] != "remove") {
		b.reply(chatID, "Usage: `/plan add|remove meal recipe-id YYYY-MM-DD`")
		return
	}
	mealType, recipeID, date := fields[1], fields[2], fields[3]

	var err error
	if fields[0] == "add" {
		err = b.app.AddToPlan(ctx, userID, mealType, recipeID, date)
	} else {
		err = b.app.RemoveFromPlan(ctx, userID, mealType, recipeID, date)
	}
	if err != nil {
		b.replyError(chatID, "Error updating plan", err)
		return
	}
	b.reply(chatID, "✅ Plan updated.")
}

func (b *Bot) handleShare(ctx context.Context, chatID int64, userID, args string) {
	day, err := parseDay(args, b.now())
	if err != nil {
		b.replyError(chatID, "Invalid date", err)
		return
	}
	res, err := b.app.Share(ctx, userID, day)
	if err != nil {
		b.replyError(chatID, "Error sharing list", err)
		return
	}
	// Sent as plain text so it can be forwarded unchanged.
	b.api.Send(tgbotapi.NewMessage(chatID, res.Message))
}

func (b *Bot) handleNutrition(ctx context.Context, chatID int64, userID, args string) {
	if args != "" {
		if _, err := parseDay(args, b.now()); err != nil {
			b.replyError(chatID, "Invalid date", err)
			return
		}
		s, err := b.app.DayNutrition(ctx, userID, args)
		if err != nil {
			b.replyError(chatID, "Error computing nutrition", err)
			return
		}
		b.reply(chatID, formatSummary(s))
		return
	}

	s, err := b.app.WeekNutrition(ctx, userID, b.now())
	if err != nil {
		b.replyError(chatID, "Error computing nutrition", err)
		return
	}
	b.reply(chatID, formatSummary(s))
}

func (b *Bot) handleClip(ctx context.Context, chatID int64, pageURL string) {
	sent, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...*")))
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Error(err))
		return
	}

	var finalText string
	rec, err := b.app.ClipURL(ctx, pageURL)
	switch {
	case rec == nil:
		b.logger.Error("failed to clip recipe", zap.String("url", pageURL), zap.Error(err))
		finalText = errorText("Error clipping recipe", err)
	default:
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*ID:* `%s`\n*Ingredients:* %d",
			escape(rec.Title), rec.ID, len(rec.Ingredients))
		if err != nil {
			b.logger.Warn("recipe saved but not published", zap.String("id", rec.ID), zap.Error(err))
			finalText += "\n_Not published to the blog._"
		}
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.api.Send(edit)
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	usage, err := b.app.Usage(ctx, 7)
	if err != nil {
		b.replyError(chatID, "Error fetching metrics", err)
		return
	}
	b.reply(chatID, formatReport(usage, metrics.GetSysHealth(b.app.DataDir())))
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, text))); err != nil {
		b.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, title string, err error) {
	b.reply(chatID, errorText(title, err))
}

func markdown(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}
