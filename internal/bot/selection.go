package bot

import (
	"strings"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
)

// startSelection opens the participant selector for payload on the first page.
func (b *Bot) startSelection(req *request, payload string) (Reply, error) {
	return b.showPage(req, models.ParticipantSelect{Payload: payload})
}

// showPage stores sel as the user's state and renders it. A page past the
// end is clamped to the last one.
func (b *Bot) showPage(req *request, sel models.ParticipantSelect) (Reply, error) {
	if sel.Page < 0 {
		sel.Page = 0
	}
	participants, total, err := b.services.Users.Participants(req.ctx, sel.Page+1, b.pageSize, false)
	if err != nil {
		return Reply{}, err
	}
	if total == 0 {
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "participants.none"), nil
	}
	if len(participants) == 0 {
		sel.Page = int((total - 1) / int64(b.pageSize))
		participants, total, err = b.services.Users.Participants(req.ctx, sel.Page+1, b.pageSize, false)
		if err != nil {
			return Reply{}, err
		}
	}

	if err := b.setState(req, sel); err != nil {
		return Reply{}, err
	}

	from := sel.Page*b.pageSize + 1
	to := sel.Page*b.pageSize + len(participants)
	text := b.t(req, "select.range", b.selectionTitle(req, sel.Payload), from, to, total)

	keyboard := &Keyboard{}
	for _, p := range participants {
		keyboard.Rows = append(keyboard.Rows, []Button{{
			Text:  b.t(req, "select.button", p.User.DisplayName(), p.SessionCount),
			Token: SelectToken(p.User.TelegramID),
		}})
	}
	var nav []Button
	if sel.Page > 0 {
		nav = append(nav, Button{Text: b.t(req, "select.prev"), Token: PageToken(sel.Page - 1)})
	}
	nav = append(nav, Button{Text: b.t(req, "select.cancel"), Token: CancelToken()})
	if int64(to) < total {
		nav = append(nav, Button{Text: b.t(req, "select.next"), Token: PageToken(sel.Page + 1)})
	}
	keyboard.Rows = append(keyboard.Rows, nav)

	return Reply{Text: text, Keyboard: keyboard}, nil
}

func (b *Bot) selectionTitle(req *request, payload string) string {
	if n, ok := models.ParseLastPayload(payload); ok {
		if n == 1 {
			return b.t(req, "select.title.last")
		}
		return b.t(req, "select.title.last_n", n)
	}
	return b.t(req, "select.title.participants")
}

// onSelectionText re-renders the current page; only tokens move the selector.
func (b *Bot) onSelectionText(req *request, _ string) (Reply, error) {
	sel, ok := req.state.(models.ParticipantSelect)
	if !ok {
		return Reply{}, apperrors.New(apperrors.ErrSelectionExpired)
	}
	return b.showPage(req, sel)
}

func (b *Bot) onToken(req *request) (Reply, error) {
	token, err := ParseToken(req.event.Token)
	if err != nil {
		return Reply{}, err
	}
	sel, ok := req.state.(models.ParticipantSelect)
	if !ok {
		return Reply{}, apperrors.New(apperrors.ErrSelectionExpired)
	}
	if !req.user.IsAdmin() {
		return Reply{}, apperrors.New(apperrors.ErrForbidden, "selection")
	}

	switch token.Kind {
	case TokenPage:
		return b.showPage(req, models.ParticipantSelect{Payload: sel.Payload, Page: token.Page})
	case TokenCancel:
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "select.cancelled"), nil
	default:
		// re-read, the list the token came from may be stale
		target, err := b.services.Users.GetByTelegramID(req.ctx, token.TelegramID)
		if repository.IsNotFound(err) {
			if err := b.clearState(req); err != nil {
				return Reply{}, err
			}
			return b.reply(req, "select.not_found"), nil
		}
		if err != nil {
			return Reply{}, err
		}
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.apply(req, sel.Payload, target)
	}
}

// apply runs the admin action named by payload against target.
func (b *Bot) apply(req *request, payload string, target *models.User) (Reply, error) {
	if n, ok := models.ParseLastPayload(payload); ok {
		return b.renderJournals(req, target, n)
	}

	var role models.Role
	var key string
	switch payload {
	case models.PayloadPromote:
		role, key = models.RoleAdmin, "user.promoted"
	case models.PayloadBan:
		if target.ID == req.user.ID {
			return b.reply(req, "user.self_ban"), nil
		}
		role, key = models.RoleBanned, "user.banned"
	case models.PayloadUnban:
		role, key = models.RolePlayer, "user.unbanned"
	default:
		return Reply{}, apperrors.Newf(apperrors.ErrInvalidToken, "payload %q", payload)
	}

	if err := b.services.Users.SetRole(req.ctx, target, role); err != nil {
		return Reply{}, err
	}
	b.log.Info("Admin action applied",
		zap.String("action", payload),
		zap.Int64("target", target.TelegramID),
		zap.Int64("by", req.user.TelegramID),
	)
	return b.reply(req, key, escape(target.DisplayName())), nil
}

// targetedAction runs payload for "@username" or, without one, opens the selector.
func (b *Bot) targetedAction(payload string) func(req *request, args string) (Reply, error) {
	return func(req *request, args string) (Reply, error) {
		fields := strings.Fields(args)
		if len(fields) == 0 {
			return b.startSelection(req, payload)
		}
		username := strings.TrimPrefix(fields[0], "@")
		target, err := b.services.Users.FindByUsername(req.ctx, username)
		if repository.IsNotFound(err) {
			return b.reply(req, "user.not_found", escape(username)), nil
		}
		if err != nil {
			return Reply{}, err
		}
		return b.apply(req, payload, target)
	}
}
