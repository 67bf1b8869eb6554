package bot

import (
	"context"
	"strings"
	"time"

	"videobot-backend/internal/common/logger"
	"videobot-backend/internal/platform/telegram"
)

const handleTimeout = 30 * time.Second

// Poller long-polls Telegram for updates and hands each one to the
// dispatcher on its own goroutine. Per-user ordering is enforced further
// down by the per-user lock, not here.
type Poller struct {
	client      *telegram.Client
	dispatcher  *Dispatcher
	pollTimeout int
}

func NewPoller(client *telegram.Client, dispatcher *Dispatcher, pollTimeoutSec int) *Poller {
	return &Poller{
		client:      client,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeoutSec,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go p.handle(ctx, update)
		}
	}
}

func (p *Poller) handle(ctx context.Context, update telegram.Update) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		p.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		p.handleMessage(ctx, update.Message)
	}
}

func (p *Poller) handleMessage(ctx context.Context, msg *telegram.Message) {
	name, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}

	resp := p.dispatcher.HandleCommand(ctx, name, msg.From.ID, msg.From.Username, args)
	p.send(ctx, msg.Chat.ID, 0, resp)
}

func (p *Poller) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	resp := p.dispatcher.HandleCallback(ctx, cb.Data, cb.From.ID, cb.From.Username)

	notice := ""
	if noop, ok := resp.(NoOp); ok {
		notice = noop.Notice
	}
	if err := p.client.AnswerCallbackQuery(ctx, cb.ID, notice, notice != ""); err != nil {
		logger.Warn().Err(err).Msg("answerCallbackQuery failed")
	}

	if cb.Message == nil {
		return
	}
	p.send(ctx, cb.Message.Chat.ID, cb.Message.MessageID, resp)
}

func (p *Poller) send(ctx context.Context, chatID, messageID int64, resp Response) {
	var err error
	switch r := resp.(type) {
	case TextMessage:
		err = p.client.SendMessage(ctx, chatID, r.Text, r.Keyboard)
	case VideoMessage:
		err = p.client.SendVideo(ctx, chatID, r.FileID, r.Caption, r.Keyboard)
	case EditMessage:
		if messageID == 0 {
			// Commands have nothing to edit; degrade to a fresh message.
			if r.FileID != "" {
				err = p.client.SendVideo(ctx, chatID, r.FileID, r.Caption, r.Keyboard)
			} else {
				err = p.client.SendMessage(ctx, chatID, r.Text, r.Keyboard)
			}
			break
		}
		if r.FileID != "" {
			err = p.client.EditMessageMedia(ctx, chatID, messageID, r.FileID, r.Caption, r.Keyboard)
		} else {
			err = p.client.EditMessageText(ctx, chatID, messageID, r.Text, r.Keyboard)
		}
	case NoOp:
		// Already answered via the callback notice.
	}
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to deliver response")
	}
}

// parseCommand splits "/addcategory movies 123" into name and args.
// Commands addressed to other bots ("/start@SomeBot") are normalized.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	name = fields[0]
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return name, fields[1:], true
}
