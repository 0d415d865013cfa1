package bot

import (
	"html"
	"strings"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// escape makes user supplied text safe for HTML parse mode.
func escape(s string) string {
	return html.EscapeString(s)
}

// catalogLines renders "BEFORE: text" lines.
func catalogLines(questions []*models.Question) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, string(q.Type)+": "+escape(q.Text))
	}
	return strings.Join(lines, "\n")
}

func firstOfType(ordered []*models.Question, qt models.QuestionType) int {
	for i, q := range ordered {
		if q.Type == qt {
			return i
		}
	}
	return -1
}

func (b *Bot) sessionDisplay(req *request, session *models.Session) (string, error) {
	questions, err := b.services.Questions.GetOrderedQuestions(req.ctx, session.ID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(b.t(req, "session.current", escape(session.Name), formatTime(session.CreatedAt)))
	if len(questions) == 0 {
		sb.WriteString(b.t(req, "session.no_questions"))
	} else {
		sb.WriteString(b.t(req, "session.questions", catalogLines(questions)))
	}
	return sb.String(), nil
}

// renderJournals shows the last n sessions of target's journals.
func (b *Bot) renderJournals(req *request, target *models.User, n int) (Reply, error) {
	groups, err := b.services.Journals.LastSessions(req.ctx, target.ID, n)
	if err != nil {
		return Reply{}, err
	}
	if len(groups) == 0 {
		return b.reply(req, "journals.none"), nil
	}

	var sb strings.Builder
	if n == 1 {
		sb.WriteString(b.t(req, "journals.last"))
	} else {
		sb.WriteString(b.t(req, "journals.last_n", n))
	}
	for i, group := range groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.t(req, "journals.session", formatTime(group.LastAnswerAt), escape(group.Session.Name)))
		for _, entry := range group.Entries {
			sb.WriteString(b.t(req, "journals.entry", string(entry.QuestionType), escape(entry.QuestionText), escape(entry.Answer)))
		}
	}
	return Reply{Text: sb.String()}, nil
}
