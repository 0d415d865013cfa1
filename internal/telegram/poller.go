package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const pollRetryDelay = 3 * time.Second

// Poller pulls updates with getUpdates, for deployments without a public URL.
type Poller struct {
	client     *Client
	dispatcher *Dispatcher
	timeout    time.Duration
	retryDelay time.Duration
	log        *zap.Logger
	offset     int64
}

func NewPoller(client *Client, dispatcher *Dispatcher, pollTimeout time.Duration, log *zap.Logger) *Poller {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Poller{
		client:     client,
		dispatcher: dispatcher,
		timeout:    pollTimeout,
		retryDelay: pollRetryDelay,
		log:        log.Named("poller"),
	}
}

// Run polls until ctx is done. It drops any registered webhook first, since
// Telegram refuses getUpdates while one is set.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.log.Warn("Failed to delete webhook", zap.Error(err))
	}
	p.log.Info("Polling started", zap.Duration("timeout", p.timeout))

	for {
		if ctx.Err() != nil {
			p.log.Info("Polling stopped")
			return nil
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.log.Warn("getUpdates failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			p.offset = u.UpdateID + 1
			p.process(ctx, u)
		}
	}
}

func (p *Poller) process(ctx context.Context, u Update) {
	method, ok := p.dispatcher.Dispatch(ctx, u)
	if !ok {
		return
	}
	if err := p.client.Send(ctx, method); err != nil {
		p.log.Error("Failed to send reply",
			zap.Int64("updateID", u.UpdateID),
			zap.String("method", method.Method),
			zap.Error(err),
		)
	}
}
