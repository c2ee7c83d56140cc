// Package telegram provides the chat transport: bot commands for
// subscription management and the notification channel for report
// delivery.
package telegram

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

const providerName = "telegram"

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

// Bot wraps the telebot instance, command handlers, and outbound
// delivery. Outbound sends share one rate limiter so broadcast fan-out
// stays inside the Bot API quota.
type Bot struct {
	bot     *tele.Bot
	cfg     common.TelegramConfig
	subs    interfaces.SubscriptionService
	reports interfaces.ReportService
	limiter *rate.Limiter
	logger  *common.Logger
}

// NewBot creates the bot and registers command handlers.
func NewBot(cfg common.TelegramConfig, subs interfaces.SubscriptionService, reports interfaces.ReportService, logger *common.Logger) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 25
	}

	bot := &Bot{
		bot:     b,
		cfg:     cfg,
		subs:    subs,
		reports: reports,
		limiter: rate.NewLimiter(rate.Limit(limit), limit),
		logger:  logger,
	}
	bot.registerHandlers()

	return bot, nil
}

// Start begins long-polling. Blocks; run in a goroutine.
func (b *Bot) Start() {
	b.logger.Info().Msg("Telegram bot started")
	b.bot.Start()
}

// Stop halts the poller.
func (b *Bot) Stop() {
	b.bot.Stop()
	b.logger.Info().Msg("Telegram bot stopped")
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/auth", b.handleAuth)
	b.bot.Handle("/subscribe", b.authorized(b.handleSubscribe))
	b.bot.Handle("/unsubscribe", b.authorized(b.handleUnsubscribe))
	b.bot.Handle("/tickers", b.authorized(b.handleTickers))
	b.bot.Handle("/report", b.authorized(b.handleReport))
}

// verifyPassword checks the /auth shared secret. A bcrypt hash takes
// precedence over the plain-text development fallback.
func (b *Bot) verifyPassword(supplied string) bool {
	if b.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(b.cfg.PasswordHash), []byte(supplied)) == nil
	}
	if b.cfg.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(b.cfg.Password), []byte(supplied)) == 1
}

func (b *Bot) handleAuth(c tele.Context) error {
	password := strings.Join(c.Args(), " ")
	if !b.verifyPassword(password) {
		b.logger.Warn().Int64("user", c.Sender().ID).Msg("Authentication failed")
		return c.Send("Authentication failed")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	userID := strconv.FormatInt(c.Sender().ID, 10)
	if err := b.subs.RegisterAuthorized(ctx, providerName, userID); err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("Failed to register user")
		return c.Send("Something went wrong, try again later")
	}
	return c.Send("Authentication successful")
}

// authorized gates a command handler on user authorization.
func (b *Bot) authorized(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := handlerContext()
		defer cancel()

		userID := strconv.FormatInt(c.Sender().ID, 10)
		ok, err := b.subs.IsAuthorized(ctx, providerName, userID)
		if err != nil {
			b.logger.Error().Err(err).Str("user", userID).Msg("Authorization check failed")
			return c.Send("Something went wrong, try again later")
		}
		if !ok {
			return c.Send("Not authorized. Use /auth <password> first.")
		}
		return next(c)
	}
}

func (b *Bot) handleSubscribe(c tele.Context) error {
	ticker := tickerArg(c)
	if ticker == "" {
		return c.Send("Usage: /subscribe <ticker>")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	userID := strconv.FormatInt(c.Sender().ID, 10)
	if err := b.subs.Subscribe(ctx, providerName, userID, ticker); err != nil {
		b.logger.Error().Err(err).Str("user", userID).Str("ticker", ticker).Msg("Subscribe failed")
		return c.Send("Something went wrong, try again later")
	}
	return c.Send(fmt.Sprintf("Subscribed to %s", ticker))
}

func (b *Bot) handleUnsubscribe(c tele.Context) error {
	ticker := tickerArg(c)
	if ticker == "" {
		return c.Send("Usage: /unsubscribe <ticker>")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	userID := strconv.FormatInt(c.Sender().ID, 10)
	if err := b.subs.Unsubscribe(ctx, providerName, userID, ticker); err != nil {
		b.logger.Error().Err(err).Str("user", userID).Str("ticker", ticker).Msg("Unsubscribe failed")
		return c.Send("Something went wrong, try again later")
	}
	return c.Send(fmt.Sprintf("Unsubscribed from %s", ticker))
}

func (b *Bot) handleTickers(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	userID := strconv.FormatInt(c.Sender().ID, 10)
	tickers, err := b.subs.UserTickers(ctx, providerName, userID)
	if err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("Failed to list tickers")
		return c.Send("Something went wrong, try again later")
	}
	if len(tickers) == 0 {
		return c.Send("No subscriptions. Use /subscribe <ticker> to add one.")
	}
	return c.Send("Subscribed: " + strings.Join(tickers, ", "))
}

// handleReport is the ad-hoc path: it calls straight into the report
// cache and runs any day, business or not.
func (b *Bot) handleReport(c tele.Context) error {
	ticker := tickerArg(c)
	if ticker == "" {
		return c.Send("Usage: /report <ticker>")
	}

	// Generation can take minutes; give it a generous bound.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := c.Send(fmt.Sprintf("Preparing report for %s...", ticker)); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to send ack message")
	}

	report, err := b.reports.GetOrCreate(ctx, ticker)
	if err != nil {
		b.logger.Error().Err(err).Str("ticker", ticker).Msg("Ad-hoc report failed")
		return c.Send(fmt.Sprintf("Report generation for %s failed, try again later", ticker))
	}

	for _, chunk := range splitMessage(report.Content) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

func tickerArg(c tele.Context) string {
	args := c.Args()
	if len(args) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(args[0]))
}

func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// splitMessage chunks text on line boundaries to fit Telegram's limit.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if sb.Len()+len(line)+1 > maxMessageLen && sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

// recipientChat resolves a stored recipient to a telegram chat.
func recipientChat(recipient models.Recipient) (tele.Recipient, error) {
	if recipient.Provider != providerName {
		return nil, fmt.Errorf("unsupported provider %q", recipient.Provider)
	}
	id, err := strconv.ParseInt(recipient.ProviderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id %q: %w", recipient.ProviderID, err)
	}
	return tele.ChatID(id), nil
}

// SendReport delivers a report to one recipient: chart photo first when
// available, then the report text in chunks. Rate-limited per send.
func (b *Bot) SendReport(ctx context.Context, recipient models.Recipient, report *models.TickerReport, chart []byte) error {
	if report == nil {
		return errors.New("nil report")
	}

	chat, err := recipientChat(recipient)
	if err != nil {
		return err
	}

	if len(chart) > 0 {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(chart)),
			Caption: fmt.Sprintf("%s — %s", report.Ticker, report.ReportDate),
		}
		if _, err := b.bot.Send(chat, photo); err != nil {
			b.logger.Warn().Err(err).Str("ticker", report.Ticker).Msg("Chart delivery failed, sending text only")
		}
	}

	for _, chunk := range splitMessage(report.Content) {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.bot.Send(chat, chunk); err != nil {
			return fmt.Errorf("failed to deliver report for %s: %w", report.Ticker, err)
		}
	}
	return nil
}

// Ensure Bot implements Notifier
var _ interfaces.Notifier = (*Bot)(nil)
