// Package bot is the conversation state machine.
//
// Every event runs under a per-user lock: the user is loaded (or
// registered), banned users are rejected, and the input is dispatched
// either through the command table or through the table of free-text
// handlers keyed by the user's persisted state.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/i18n"
	"github.com/AlexanderMakarov/tgjournals/internal/lock"
	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"go.uber.org/zap"
)

// DefaultPageSize of the participant selector.
const DefaultPageSize = 10

// Event is one input from a chat user: either Text or a selector Token.
type Event struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	Text         string
	Token        string
}

// IsToken reports whether the event carries a selector token.
func (e Event) IsToken() bool {
	return e.Token != ""
}

func (e Event) profile() service.Profile {
	return service.Profile{
		TelegramID:   e.TelegramID,
		Username:     e.Username,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		LanguageCode: e.LanguageCode,
	}
}

// Button is one inline keyboard button; Token comes back as Event.Token.
type Button struct {
	Text  string
	Token string
}

// Keyboard is an inline keyboard, row by row.
type Keyboard struct {
	Rows [][]Button
}

// Reply is the answer to an event. Text is HTML.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}

// Options tune a Bot.
type Options struct {
	PageSize int
	// Username of the bot; "/cmd@<Username>" is accepted as "/cmd".
	Username string
	Metrics  *metrics.Metrics
}

type commandHandler struct {
	adminOnly bool
	run       func(req *request, args string) (Reply, error)
}

type textHandler func(req *request, text string) (Reply, error)

// Bot handles chat events.
type Bot struct {
	services *service.Services
	locker   lock.Locker
	tr       *i18n.Translator
	log      *zap.Logger
	metrics  *metrics.Metrics
	pageSize int
	username string

	commands map[string]commandHandler
	states   map[models.StateKind]textHandler
}

// request is the per-event context handed to handlers.
type request struct {
	ctx    context.Context
	event  Event
	user   *models.User
	state  models.ConversationState
	locale string
}

// New creates a Bot.
func New(services *service.Services, locker lock.Locker, tr *i18n.Translator, log *zap.Logger, opts Options) *Bot {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize > repository.MaxPageSize {
		opts.PageSize = repository.MaxPageSize
	}
	b := &Bot{
		services: services,
		locker:   locker,
		tr:       tr,
		log:      log.Named("bot"),
		metrics:  opts.Metrics,
		pageSize: opts.PageSize,
		username: strings.TrimPrefix(opts.Username, "@"),
	}
	b.commands = b.commandTable()
	b.states = map[models.StateKind]textHandler{
		models.StateQAFlow:            b.onAnswer,
		models.StateQuestionsUpdate:   b.onQuestionsText,
		models.StateParticipantSelect: b.onSelectionText,
	}
	return b
}

// Handle processes one event. Only infrastructure failures are returned as
// errors; everything the user did wrong is answered with a Reply.
func (b *Bot) Handle(ctx context.Context, event Event) (Reply, error) {
	started := time.Now()
	reply, outcome, err := b.handle(ctx, event)
	if err != nil {
		outcome = metrics.OutcomeError
		b.metrics.ObserveError(int(apperrors.GetCode(err)))
	}
	elapsed := time.Since(started)
	logger.LogUpdate(b.log, event.TelegramID, outcome, elapsed, err, zap.Bool("token", event.IsToken()))
	b.metrics.ObserveHandle(outcome, elapsed)
	return reply, err
}

// FailureReply is what the transport sends when Handle fails.
func (b *Bot) FailureReply(languageCode string) Reply {
	return Reply{Text: b.tr.T(b.tr.Locale(languageCode), "error.generic")}
}

func (b *Bot) handle(ctx context.Context, event Event) (Reply, string, error) {
	unlock, err := b.locker.Lock(ctx, lock.UserKey(event.TelegramID))
	if err != nil {
		return Reply{}, "", apperrors.Wrap(err, apperrors.ErrLockUnavailable)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			b.log.Warn("Failed to release user lock", zap.Int64("telegramID", event.TelegramID), zap.Error(err))
		}
	}()

	user, err := b.services.Users.FindOrCreate(ctx, event.profile())
	if err != nil {
		return Reply{}, "", err
	}

	req := &request{
		ctx:    ctx,
		event:  event,
		user:   user,
		locale: b.tr.Locale(event.LanguageCode),
	}

	if user.IsBanned() {
		return b.explain(req, apperrors.New(apperrors.ErrBanned)), metrics.OutcomeReply, nil
	}

	state, err := user.State()
	if err != nil {
		b.log.Warn("Dropping unreadable conversation state", zap.Int64("telegramID", user.TelegramID), zap.Error(err))
		if err := b.services.Users.SaveState(ctx, user, models.NoState{}); err != nil {
			return Reply{}, "", err
		}
		state = models.NoState{}
	}
	req.state = state

	reply, err := b.route(req)
	if err == nil {
		return reply, metrics.OutcomeOK, nil
	}
	if !apperrors.IsUserFacing(err) {
		return Reply{}, "", err
	}
	if apperrors.ClearsState(err) {
		if err := b.clearState(req); err != nil {
			return Reply{}, "", err
		}
	}
	return b.explain(req, err), metrics.OutcomeReply, nil
}

func (b *Bot) route(req *request) (Reply, error) {
	if req.event.IsToken() {
		return b.onToken(req)
	}

	text := strings.TrimSpace(req.event.Text)
	if strings.HasPrefix(text, "/") {
		name, args := b.parseCommand(text)
		cmd, ok := b.commands[name]
		if !ok {
			return b.reply(req, "command.unknown"), nil
		}
		b.metrics.ObserveCommand(name)
		if cmd.adminOnly && !req.user.IsAdmin() {
			return Reply{}, apperrors.New(apperrors.ErrForbidden, name)
		}
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return cmd.run(req, args)
	}

	handler, ok := b.states[req.state.Kind()]
	if !ok {
		return b.reply(req, "input.unsupported"), nil
	}
	return handler(req, text)
}

// parseCommand splits "/Cmd@bot rest of text" into "/cmd" and "rest of text".
func (b *Bot) parseCommand(text string) (string, string) {
	name, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], strings.TrimSpace(text[i:])
	}
	name = strings.ToLower(name)
	if at := strings.IndexByte(name, '@'); at >= 0 {
		if b.username == "" || strings.EqualFold(name[at+1:], b.username) {
			name = name[:at]
		}
	}
	return name, args
}

// explain turns a conversation error into the message the user sees.
func (b *Bot) explain(req *request, err error) Reply {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return b.reply(req, "error.generic")
	}
	b.metrics.ObserveError(int(appErr.Code))

	switch appErr.Code {
	case apperrors.ErrForbidden:
		return b.reply(req, "error.forbidden")
	case apperrors.ErrBanned:
		return b.reply(req, "error.banned")
	case apperrors.ErrNoActiveSession:
		return b.reply(req, "session.none.player")
	case apperrors.ErrSessionChanged:
		return b.reply(req, "flow.session_changed", escape(appErr.Details))
	case apperrors.ErrCursorOutOfRange:
		return b.reply(req, "flow.bad_index")
	case apperrors.ErrCatalogChanged:
		return b.reply(req, "flow.catalog_changed")
	case apperrors.ErrSelectionExpired, apperrors.ErrInvalidToken:
		return b.reply(req, "select.expired")
	default:
		return b.reply(req, "error.generic")
	}
}

func (b *Bot) setState(req *request, state models.ConversationState) error {
	if err := b.services.Users.SaveState(req.ctx, req.user, state); err != nil {
		return err
	}
	req.state = state
	return nil
}

func (b *Bot) clearState(req *request) error {
	if req.state == nil || req.state.Kind() == models.StateNone {
		return nil
	}
	return b.setState(req, models.NoState{})
}

func (b *Bot) t(req *request, key string, args ...interface{}) string {
	return b.tr.T(req.locale, key, args...)
}

func (b *Bot) reply(req *request, key string, args ...interface{}) Reply {
	return Reply{Text: b.t(req, key, args...)}
}
