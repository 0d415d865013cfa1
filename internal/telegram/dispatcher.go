package telegram

import (
	"context"

	"github.com/AlexanderMakarov/tgjournals/internal/bot"
	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"go.uber.org/zap"
)

// Handler is what the dispatcher feeds events to; *bot.Bot implements it.
type Handler interface {
	Handle(ctx context.Context, event bot.Event) (bot.Reply, error)
	FailureReply(languageCode string) bot.Reply
}

// Dispatcher turns updates into Bot API calls. It is shared by the webhook
// handler and the Poller.
type Dispatcher struct {
	handler Handler
	client  *Client
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewDispatcher creates a Dispatcher. client may be nil, in which case
// callback queries are not acknowledged.
func NewDispatcher(handler Handler, client *Client, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		client:  client,
		metrics: m,
		log:     log.Named("dispatcher"),
	}
}

// Dispatch handles one update and returns the call that answers it, or
// false when the update is ignored. Handler failures are answered with the
// generic failure text, never returned: Telegram must not redeliver.
func (d *Dispatcher) Dispatch(ctx context.Context, u Update) (*MethodResponse, bool) {
	event, target, ok := EventFromUpdate(u)
	if !ok {
		d.metrics.ObserveUpdate(metrics.UpdateIgnored)
		d.log.Debug("Ignoring update", zap.Int64("updateID", u.UpdateID))
		return nil, false
	}

	if target.IsCallback() {
		d.metrics.ObserveUpdate(metrics.UpdateCallback)
		d.ackCallback(ctx, target.CallbackID)
	} else {
		d.metrics.ObserveUpdate(metrics.UpdateMessage)
	}

	reply, err := d.handler.Handle(ctx, event)
	if err != nil {
		d.log.Error("Update failed",
			zap.Int64("updateID", u.UpdateID),
			zap.Int64("telegramID", event.TelegramID),
			zap.Error(err),
		)
		reply = d.handler.FailureReply(event.LanguageCode)
	}
	return MethodFromReply(target, reply), true
}

func (d *Dispatcher) ackCallback(ctx context.Context, id string) {
	if d.client == nil {
		return
	}
	if err := d.client.AnswerCallbackQuery(ctx, id); err != nil {
		d.log.Warn("Failed to answer callback query", zap.String("callbackID", id), zap.Error(err))
	}
}
