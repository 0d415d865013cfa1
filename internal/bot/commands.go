package bot

import (
	"strings"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
)

// participantsPageSize is how many rows /participants reads per query.
const participantsPageSize = 100

func (b *Bot) commandTable() map[string]commandHandler {
	return map[string]commandHandler{
		"/start":         {run: b.cmdStart},
		"/help":          {run: b.cmdHelp},
		"/before":        {run: b.cmdBefore},
		"/after":         {run: b.cmdAfter},
		"/last":          {run: b.cmdLast(1)},
		"/last5":         {run: b.cmdLast(5)},
		"/last50":        {run: b.cmdLast(50)},
		"/admins":        {run: b.cmdAdmins},
		"/session":       {adminOnly: true, run: b.cmdSession},
		"/set_questions": {adminOnly: true, run: b.cmdSetQuestions},
		"/participants":  {adminOnly: true, run: b.cmdParticipants},
		"/promote":       {adminOnly: true, run: b.targetedAction(models.PayloadPromote)},
		"/ban":           {adminOnly: true, run: b.targetedAction(models.PayloadBan)},
		"/unban":         {adminOnly: true, run: b.targetedAction(models.PayloadUnban)},
	}
}

func (b *Bot) cmdStart(req *request, _ string) (Reply, error) {
	return b.reply(req, "start"), nil
}

func (b *Bot) cmdHelp(req *request, _ string) (Reply, error) {
	text := b.t(req, "help.intro")
	if req.user.IsAdmin() {
		text += b.t(req, "help.admin")
	}
	text += b.t(req, "help.player")
	return Reply{Text: text}, nil
}

// cmdLast shows the caller's own journals; admins pick a participant first.
func (b *Bot) cmdLast(n int) func(req *request, args string) (Reply, error) {
	return func(req *request, _ string) (Reply, error) {
		if req.user.IsAdmin() {
			return b.startSelection(req, models.LastPayload(n))
		}
		return b.renderJournals(req, req.user, n)
	}
}

func (b *Bot) cmdParticipants(req *request, _ string) (Reply, error) {
	var all []models.Participant
	for page := 1; ; page++ {
		participants, total, err := b.services.Users.Participants(req.ctx, page, participantsPageSize, true)
		if err != nil {
			return Reply{}, err
		}
		all = append(all, participants...)
		if len(participants) == 0 || int64(len(all)) >= total {
			break
		}
	}
	if len(all) == 0 {
		return b.reply(req, "participants.none"), nil
	}

	var sb strings.Builder
	sb.WriteString(b.t(req, "participants.header"))
	for _, p := range all {
		sb.WriteString(b.t(req, "participants.line", escape(p.User.DisplayName()), p.SessionCount))
	}
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) cmdAdmins(req *request, _ string) (Reply, error) {
	admins, err := b.services.Users.Admins(req.ctx)
	if err != nil {
		return Reply{}, err
	}
	if len(admins) == 0 {
		return b.reply(req, "admins.none"), nil
	}

	var sb strings.Builder
	sb.WriteString(b.t(req, "admins.header"))
	for _, admin := range admins {
		sb.WriteString(b.t(req, "admins.line", escape(admin.DisplayName())))
	}
	return Reply{Text: sb.String()}, nil
}

// MenuCommand is one entry of the chat's command menu.
type MenuCommand struct {
	Command     string
	Description string
}

// Menu lists the commands every user can run, for the Telegram command menu.
func (b *Bot) Menu(languageCode string) []MenuCommand {
	locale := b.tr.Locale(languageCode)
	names := []string{"start", "help", "before", "after", "last", "last5", "last50", "admins"}
	out := make([]MenuCommand, 0, len(names))
	for _, name := range names {
		out = append(out, MenuCommand{
			Command:     name,
			Description: b.tr.T(locale, "menu."+name),
		})
	}
	return out
}
