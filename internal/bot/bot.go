package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/remindbot/internal/infrastructure/telegram"
	appLogger "github.com/fastygo/remindbot/pkg/logger"
)

// API is the part of the Bot API the poller needs.
type API interface {
	GetUpdates(ctx context.Context, offset int64, poll time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, msg telegram.SendMessageRequest) (*telegram.Message, error)
}

// Config controls long polling.
type Config struct {
	PollTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBackoff     time.Duration
}

// Bot long-polls Telegram and answers each message through a Dispatcher.
type Bot struct {
	api        API
	dispatcher *Dispatcher
	logger     *zap.Logger
	cfg        Config

	cancel context.CancelFunc
	done   chan struct{}
}

var keyboard = &telegram.ReplyKeyboardMarkup{
	Keyboard:       [][]telegram.KeyboardButton{{{Text: ButtonMyTasks}}},
	ResizeKeyboard: true,
}

func New(api API, dispatcher *Dispatcher, logger *zap.Logger, cfg Config) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:        api,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		done:       make(chan struct{}),
	}
}

// Start runs the polling loop in the background.
func (b *Bot) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	go func() {
		defer close(b.done)
		b.Run(ctx)
	}()
	b.logger.Info("bot polling started")
}

// Stop cancels polling and waits for the in-flight update to finish.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run polls until ctx is cancelled. Transport errors back off and never stop the loop.
func (b *Bot) Run(ctx context.Context) {
	var offset int64
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := b.api.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			wait := backoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			b.logger.Warn("get updates failed", zap.Duration("retry_in", wait), zap.Error(err))
			if !sleep(ctx, wait) {
				return
			}
			backoff = min(backoff*2, b.cfg.MaxBackoff)
			continue
		}
		backoff = time.Second

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate answers a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()
	reqCtx = appLogger.ContextWithRequestID(reqCtx, "tg-"+strconv.FormatInt(u.UpdateID, 10))
	reqCtx = appLogger.ContextWithUserID(reqCtx, msg.From.ID)

	reply := b.dispatcher.Dispatch(reqCtx, Request{
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	})
	if reply.Text == "" {
		return
	}

	out := telegram.SendMessageRequest{ChatID: msg.Chat.ID, Text: reply.Text}
	if reply.Markdown {
		out.ParseMode = telegram.ParseModeMarkdown
	}
	if reply.Keyboard {
		out.ReplyMarkup = keyboard
	}
	if _, err := b.api.SendMessage(reqCtx, out); err != nil {
		appLogger.FromContext(reqCtx, b.logger).Error("failed to send reply",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
