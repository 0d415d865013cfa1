package bot

import (
	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"go.uber.org/zap"
)

// cmdSession shows the active session, or with a name finishes it and
// starts a new one.
func (b *Bot) cmdSession(req *request, name string) (Reply, error) {
	if name == "" {
		active, err := b.services.Sessions.GetActive(req.ctx)
		if err != nil {
			return Reply{}, err
		}
		if active == nil {
			return b.reply(req, "session.none.admin"), nil
		}
		text, err := b.sessionDisplay(req, active)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text}, nil
	}

	created, finished, err := b.services.Sessions.CreateNew(req.ctx, name)
	if err != nil {
		return Reply{}, err
	}
	b.log.Info("Session started",
		zap.String("name", created.Name),
		zap.Uint("sessionID", created.ID),
		zap.Int64("by", req.user.TelegramID),
	)

	text := ""
	if finished != nil {
		text = b.t(req, "session.finished", escape(finished.Name))
	}
	text += b.t(req, "session.created", escape(created.Name))
	display, err := b.sessionDisplay(req, created)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: text + display}, nil
}

func (b *Bot) cmdSetQuestions(req *request, _ string) (Reply, error) {
	active, err := b.services.Sessions.GetActive(req.ctx)
	if err != nil {
		return Reply{}, err
	}
	if active == nil {
		return b.reply(req, "session.none.admin"), nil
	}
	display, err := b.sessionDisplay(req, active)
	if err != nil {
		return Reply{}, err
	}
	if err := b.setState(req, models.QuestionsUpdate{SessionID: active.ID}); err != nil {
		return Reply{}, err
	}
	return Reply{Text: display + b.t(req, "questions.format")}, nil
}

// onQuestionsText replaces the catalog of the session the flow was opened for.
func (b *Bot) onQuestionsText(req *request, text string) (Reply, error) {
	pending, ok := req.state.(models.QuestionsUpdate)
	if !ok {
		return Reply{}, apperrors.New(apperrors.ErrCatalogChanged, "not updating questions")
	}

	active, err := b.services.Sessions.GetActive(req.ctx)
	if err != nil {
		return Reply{}, err
	}
	if active == nil {
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "session.none.admin"), nil
	}
	if active.ID != pending.SessionID {
		return Reply{}, apperrors.New(apperrors.ErrSessionChanged, active.Name)
	}

	questions, err := b.services.Questions.ReplaceQuestions(req.ctx, active.ID, text)
	if err != nil {
		return Reply{}, err
	}
	if err := b.clearState(req); err != nil {
		return Reply{}, err
	}
	b.log.Info("Questions replaced",
		zap.Uint("sessionID", active.ID),
		zap.Int("count", len(questions)),
		zap.Int64("by", req.user.TelegramID),
	)

	if len(questions) == 0 {
		return b.reply(req, "questions.cleared"), nil
	}
	return b.reply(req, "questions.updated", catalogLines(questions)), nil
}
