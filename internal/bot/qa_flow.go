package bot

import (
	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
)

func (b *Bot) activeCatalog(req *request) (*models.Session, []*models.Question, error) {
	session, err := b.services.Sessions.GetActive(req.ctx)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperrors.New(apperrors.ErrNoActiveSession)
	}
	ordered, err := b.services.Questions.GetOrderedQuestions(req.ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, ordered, nil
}

func (b *Bot) cmdBefore(req *request, _ string) (Reply, error) {
	session, ordered, err := b.activeCatalog(req)
	if err != nil {
		return Reply{}, err
	}
	first := firstOfType(ordered, models.QuestionBefore)
	if first < 0 {
		return b.reply(req, "flow.before.none"), nil
	}
	if err := b.setState(req, models.QAFlow{SessionID: session.ID, Cursor: first, QuestionID: ordered[first].ID}); err != nil {
		return Reply{}, err
	}
	return b.reply(req, "flow.before.start",
		escape(session.Name), formatTime(session.CreatedAt), escape(ordered[first].Text)), nil
}

// cmdAfter resumes after the last answered question, never before the
// first AFTER question. When everything is answered the AFTER part starts
// over so answers can be revised.
func (b *Bot) cmdAfter(req *request, _ string) (Reply, error) {
	session, ordered, err := b.activeCatalog(req)
	if err != nil {
		return Reply{}, err
	}
	firstAfter := firstOfType(ordered, models.QuestionAfter)
	if firstAfter < 0 {
		return b.reply(req, "flow.after.none"), nil
	}

	last, err := b.services.Journals.LastAnsweredIndex(req.ctx, req.user.ID, session.ID, ordered)
	if err != nil {
		return Reply{}, err
	}
	cursor := last + 1
	if cursor < firstAfter {
		cursor = firstAfter
	}
	if cursor >= len(ordered) {
		cursor = firstAfter
	}
	if ordered[cursor].Type != models.QuestionAfter {
		return Reply{}, apperrors.Newf(apperrors.ErrCatalogChanged, "question %d is %s", cursor, ordered[cursor].Type)
	}

	if err := b.setState(req, models.QAFlow{SessionID: session.ID, Cursor: cursor, QuestionID: ordered[cursor].ID}); err != nil {
		return Reply{}, err
	}
	return b.reply(req, "flow.after.start",
		escape(session.Name), formatTime(session.CreatedAt), escape(ordered[cursor].Text)), nil
}

// onAnswer records the answer to the question under the cursor and moves on.
// The answer is refused when the catalog was replaced since the question was
// asked. Crossing from BEFORE to AFTER pauses the flow until /after.
func (b *Bot) onAnswer(req *request, text string) (Reply, error) {
	flow, ok := req.state.(models.QAFlow)
	if !ok {
		return Reply{}, apperrors.New(apperrors.ErrCursorOutOfRange, "not in a question flow")
	}

	session, ordered, err := b.activeCatalog(req)
	if err != nil {
		return Reply{}, err
	}
	if session.ID != flow.SessionID {
		return Reply{}, apperrors.New(apperrors.ErrSessionChanged, session.Name)
	}
	if flow.Cursor < 0 || flow.Cursor >= len(ordered) {
		return Reply{}, apperrors.Newf(apperrors.ErrCursorOutOfRange, "cursor %d of %d", flow.Cursor, len(ordered))
	}

	current := ordered[flow.Cursor]
	if current.ID != flow.QuestionID {
		return Reply{}, apperrors.Newf(apperrors.ErrCatalogChanged, "cursor %d is question %d, asked %d", flow.Cursor, current.ID, flow.QuestionID)
	}
	if _, err := b.services.Journals.Record(req.ctx, req.user.ID, session.ID, current.ID, text); err != nil {
		return Reply{}, err
	}

	next := flow.Cursor + 1
	switch {
	case next >= len(ordered):
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "flow.done"), nil
	case ordered[next].Type != current.Type:
		if err := b.clearState(req); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "flow.pause"), nil
	default:
		if err := b.setState(req, models.QAFlow{SessionID: session.ID, Cursor: next, QuestionID: ordered[next].ID}); err != nil {
			return Reply{}, err
		}
		return b.reply(req, "flow.saved", escape(ordered[next].Text)), nil
	}
}
