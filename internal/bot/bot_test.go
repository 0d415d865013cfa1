package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/AlexanderMakarov/tgjournals/internal/i18n"
	"github.com/AlexanderMakarov/tgjournals/internal/lock"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminID  int64 = 1
	playerID int64 = 2
)

type BotTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	services *service.Services
	bot      *Bot
}

func (suite *BotTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = repository.SetupTestDB()
	cfg := service.DefaultConfig()
	cfg.AdminIDs = []int64{adminID}
	suite.services = service.NewServices(suite.db, cfg, zap.NewNop())
	suite.bot = New(suite.services, lock.NewKeyedMutex(), i18n.MustNew("en"), zap.NewNop(), Options{PageSize: 2})
}

func (suite *BotTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *BotTestSuite) event(telegramID int64, text string) Event {
	switch telegramID {
	case adminID:
		return Event{TelegramID: adminID, Username: "coach", FirstName: "Coach", LastName: "Smith", Text: text}
	case playerID:
		return Event{TelegramID: playerID, Username: "player", FirstName: "Player", Text: text}
	default:
		return Event{TelegramID: telegramID, Text: text}
	}
}

func (suite *BotTestSuite) send(telegramID int64, text string) Reply {
	reply, err := suite.bot.Handle(suite.ctx, suite.event(telegramID, text))
	require.NoError(suite.T(), err)
	return reply
}

func (suite *BotTestSuite) press(telegramID int64, token string) Reply {
	ev := suite.event(telegramID, "")
	ev.Token = token
	reply, err := suite.bot.Handle(suite.ctx, ev)
	require.NoError(suite.T(), err)
	return reply
}

func (suite *BotTestSuite) state(telegramID int64) models.ConversationState {
	user, err := suite.services.Users.GetByTelegramID(suite.ctx, telegramID)
	require.NoError(suite.T(), err)
	state, err := user.State()
	require.NoError(suite.T(), err)
	return state
}

func (suite *BotTestSuite) role(telegramID int64) models.Role {
	user, err := suite.services.Users.GetByTelegramID(suite.ctx, telegramID)
	require.NoError(suite.T(), err)
	return user.Role
}

// setupCatalog creates a session as the admin and sets its questions.
func (suite *BotTestSuite) setupCatalog(name, questions string) {
	suite.send(adminID, "/session "+name)
	suite.send(adminID, "/set_questions")
	reply := suite.send(adminID, questions)
	require.Contains(suite.T(), reply.Text, "Questions updated successfully to:")
}

func buttonTokens(kb *Keyboard) map[string]string {
	out := make(map[string]string)
	for _, row := range kb.Rows {
		for _, b := range row {
			out[b.Text] = b.Token
		}
	}
	return out
}

func rowTexts(row []Button) []string {
	var out []string
	for _, b := range row {
		out = append(out, b.Text)
	}
	return out
}

func (suite *BotTestSuite) TestFullQuestionFlow() {
	reply := suite.send(adminID, "/session Default Session")
	assert.Contains(suite.T(), reply.Text, "✅ Session 'Default Session' created successfully!\n\n📝 <b>Current Session:</b>\nName: Default Session\nCreated: ")
	assert.Contains(suite.T(), reply.Text, "\n\nNo questions found for active session.\nUse /set_questions command to set questions.")

	reply = suite.send(adminID, "/set_questions")
	assert.Contains(suite.T(), reply.Text, "\n\nPlease provide questions in the following format:\n```\n")
	assert.Equal(suite.T(), models.StateQuestionsUpdate, suite.state(adminID).Kind())

	reply = suite.send(adminID, "Before: B1?\nBefore: B2\nAfter: A1\nAfter: A2")
	assert.Contains(suite.T(), reply.Text, "Questions updated successfully to:\nBEFORE: B1?\nBEFORE: B2\nAFTER: A1\nAFTER: A2\n\n")
	assert.Equal(suite.T(), models.NoState{}, suite.state(adminID))

	reply = suite.send(playerID, "/before")
	assert.Contains(suite.T(), reply.Text, "📝 <b>Session:</b> Default Session (created: ")
	assert.Contains(suite.T(), reply.Text, ")\nPlease answer the following pre-session questions, run any command to cancel the flow:\n❓ B1?")

	assert.Equal(suite.T(), "☑️ Answer saved!\n❓ B2", suite.send(playerID, "B1 answer").Text)
	assert.Equal(suite.T(), "✅ Done for now, good luck with the session, run /after command once you finish it.", suite.send(playerID, "B2 answer").Text)

	reply = suite.send(playerID, "/after")
	assert.Contains(suite.T(), reply.Text, ")\nPlease answer the following post-session questions, run any command to cancel the flow:\n❓ A1")
	assert.Equal(suite.T(), "☑️ Answer saved!\n❓ A2", suite.send(playerID, "A1 answer").Text)
	assert.Equal(suite.T(), "✅ Done, thank you for your answers!", suite.send(playerID, "A2 answer").Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))

	reply = suite.send(playerID, "/last")
	assert.True(suite.T(), strings.HasPrefix(reply.Text, "Last journal:\n\n📅 "))
	assert.Contains(suite.T(), reply.Text, " 'Default Session':\n(BEFORE) B1? - B1 answer\n(BEFORE) B2 - B2 answer\n(AFTER) A1 - A1 answer\n(AFTER) A2 - A2 answer\n")

	// everything answered, /after starts the AFTER part over
	suite.send(playerID, "/before")
	suite.send(playerID, "B1 updated")
	suite.send(playerID, "B2 updated")
	reply = suite.send(playerID, "/after")
	assert.Contains(suite.T(), reply.Text, "❓ A1")
	suite.send(playerID, "A1 updated")
	suite.send(playerID, "A2 updated")

	reply = suite.send(playerID, "/last")
	assert.Contains(suite.T(), reply.Text, " 'Default Session':\n(BEFORE) B1? - B1 updated\n(BEFORE) B2 - B2 updated\n(AFTER) A1 - A1 updated\n(AFTER) A2 - A2 updated\n")
	assert.NotContains(suite.T(), reply.Text, "B1 answer")
}

// Scenario B
func (suite *BotTestSuite) TestBeforeBoundaryPausesAndClears() {
	suite.setupCatalog("S", "Before: B1\nAfter: A1")

	suite.send(playerID, "/before")
	assert.Equal(suite.T(), suite.flowAt(0), suite.state(playerID))

	reply := suite.send(playerID, "my answer")
	assert.Equal(suite.T(), "✅ Done for now, good luck with the session, run /after command once you finish it.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))
}

func (suite *BotTestSuite) TestAfterResumesAfterLastAnswer() {
	suite.setupCatalog("S", "Before: B1\nAfter: A1\nAfter: A2")

	// /after before answering anything starts at the first AFTER question
	reply := suite.send(playerID, "/after")
	assert.Contains(suite.T(), reply.Text, "❓ A1")
	assert.Equal(suite.T(), suite.flowAt(1), suite.state(playerID))

	suite.send(playerID, "a1")
	suite.send(playerID, "/help")

	reply = suite.send(playerID, "/after")
	assert.Contains(suite.T(), reply.Text, "❓ A2")
	assert.Equal(suite.T(), suite.flowAt(2), suite.state(playerID))
}

func (suite *BotTestSuite) TestMissingQuestionsOfType() {
	suite.setupCatalog("S", "After: A1")
	assert.Equal(suite.T(), "No 'before' questions found for this session.", suite.send(playerID, "/before").Text)

	suite.send(adminID, "/set_questions")
	suite.send(adminID, "Before: B1")
	assert.Equal(suite.T(), "No 'after' questions found for this session.", suite.send(playerID, "/after").Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))
}

func (suite *BotTestSuite) TestNoActiveSession() {
	assert.Equal(suite.T(), "No active session found. Please ask your admin to create one first.", suite.send(playerID, "/before").Text)
	assert.Equal(suite.T(), "No active session found. Use /session &lt;name&gt; to create a new session.", suite.send(adminID, "/session").Text)
	assert.Equal(suite.T(), "No active session found. Use /session &lt;name&gt; to create a new session.", suite.send(adminID, "/set_questions").Text)
}

// Scenario D
func (suite *BotTestSuite) TestSessionSwapInvalidatesFlow() {
	suite.setupCatalog("Old", "Before: B1\nBefore: B2")
	suite.send(playerID, "/before")

	suite.send(adminID, "/session NewName")

	reply := suite.send(playerID, "late answer")
	assert.Equal(suite.T(), "Session was changed or finished and questions are not relevant anymore. Participate in new session 'NewName' with /before command.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.Journal{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *BotTestSuite) TestFinishedSessionInvalidatesFlow() {
	suite.setupCatalog("Old", "Before: B1")
	suite.send(playerID, "/before")

	_, err := suite.services.Sessions.FinishActive(suite.ctx)
	require.NoError(suite.T(), err)

	reply := suite.send(playerID, "answer")
	assert.Equal(suite.T(), "No active session found. Please ask your admin to create one first.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))
}

func (suite *BotTestSuite) TestCatalogReplaceRefusesStaleAnswer() {
	suite.setupCatalog("S", "Before: B1\nBefore: B2")
	suite.send(playerID, "/before")
	suite.send(playerID, "b1")

	suite.send(adminID, "/set_questions")
	suite.send(adminID, "Before: X\nAfter: Y")

	reply := suite.send(playerID, "meant for B2")
	assert.Equal(suite.T(), "Questions of this session were changed. Run /before or /after again.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.Journal{}).Where("answer = ?", "meant for B2").Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *BotTestSuite) TestLastSkipsAnswersOfReplacedCatalog() {
	suite.setupCatalog("Old", "Before: O1")
	suite.send(playerID, "/before")
	suite.send(playerID, "o1")

	suite.setupCatalog("S", "Before: B1")
	suite.send(playerID, "/before")
	suite.send(playerID, "b1")

	suite.send(adminID, "/set_questions")
	suite.send(adminID, "Before: new")

	reply := suite.send(playerID, "/last")
	assert.True(suite.T(), strings.HasPrefix(reply.Text, "Last journal:\n\n📅 "))
	assert.True(suite.T(), strings.HasSuffix(reply.Text, " 'Old':\n(BEFORE) O1 - o1\n"), reply.Text)
	assert.NotContains(suite.T(), reply.Text, "0001-01-01")
}

func (suite *BotTestSuite) TestCatalogShrinkIsIndexError() {
	suite.setupCatalog("S", "Before: B1\nBefore: B2\nBefore: B3")
	suite.send(playerID, "/before")
	suite.send(playerID, "b1")
	suite.send(playerID, "b2")

	suite.send(adminID, "/set_questions")
	suite.send(adminID, "Before: only one")

	reply := suite.send(playerID, "b3")
	assert.Equal(suite.T(), "Error with questions index. Ask your admin for help.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(playerID))
}

// Scenario C
func (suite *BotTestSuite) TestBanThroughSelector() {
	suite.send(playerID, "/start")

	reply := suite.send(adminID, "/ban")
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[1-2/2]", reply.Text)
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.PayloadBan, Page: 0}, suite.state(adminID))
	require.NotNil(suite.T(), reply.Keyboard)
	require.Len(suite.T(), reply.Keyboard.Rows, 3)
	for _, row := range reply.Keyboard.Rows[:2] {
		assert.Len(suite.T(), row, 1)
		assert.True(suite.T(), strings.HasPrefix(row[0].Token, "ps:select:"))
	}
	assert.Equal(suite.T(), []string{"Cancel"}, rowTexts(reply.Keyboard.Rows[2]))
	assert.Equal(suite.T(), "ps:cancel", reply.Keyboard.Rows[2][0].Token)

	reply = suite.press(adminID, SelectToken(playerID))
	assert.Equal(suite.T(), "Player (@player) is banned.", reply.Text)
	assert.Equal(suite.T(), models.RoleBanned, suite.role(playerID))
	assert.Equal(suite.T(), models.NoState{}, suite.state(adminID))

	assert.Equal(suite.T(), "You are banned from the bot. Please contact the admin to unban.", suite.send(playerID, "/last").Text)
	assert.Equal(suite.T(), "You are banned from the bot. Please contact the admin to unban.", suite.send(playerID, "/before").Text)

	suite.send(adminID, "/unban")
	reply = suite.press(adminID, SelectToken(playerID))
	assert.Equal(suite.T(), "Player (@player) is unbanned.", reply.Text)
	assert.Equal(suite.T(), models.RolePlayer, suite.role(playerID))
}

func (suite *BotTestSuite) TestTargetedActions() {
	suite.send(playerID, "/start")

	assert.Equal(suite.T(), "User @ghost not found.", suite.send(adminID, "/ban @ghost").Text)
	assert.Equal(suite.T(), "You cannot ban yourself.", suite.send(adminID, "/ban @Coach").Text)
	assert.Equal(suite.T(), "Player (@player) is promoted to admin.", suite.send(adminID, "/promote @PLAYER").Text)
	assert.Equal(suite.T(), models.RoleAdmin, suite.role(playerID))

	reply := suite.send(adminID, "/admins")
	assert.Equal(suite.T(), "📋 <b>Admins:</b>\n👤 Coach Smith (@coach)\n👤 Player (@player)\n", reply.Text)
}

func (suite *BotTestSuite) TestSelectorPaging() {
	for id := int64(3); id <= 5; id++ {
		suite.send(id, "/start")
	}
	suite.send(playerID, "/start")

	reply := suite.send(adminID, "/promote")
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[1-2/5]", reply.Text)
	assert.Equal(suite.T(), []string{"Cancel", "Next"}, rowTexts(reply.Keyboard.Rows[len(reply.Keyboard.Rows)-1]))

	next := buttonTokens(reply.Keyboard)["Next"]
	assert.Equal(suite.T(), "ps:page:1", next)
	reply = suite.press(adminID, next)
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[3-4/5]", reply.Text)
	assert.Equal(suite.T(), []string{"Prev", "Cancel", "Next"}, rowTexts(reply.Keyboard.Rows[len(reply.Keyboard.Rows)-1]))
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.PayloadPromote, Page: 1}, suite.state(adminID))

	reply = suite.press(adminID, PageToken(2))
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[5-5/5]", reply.Text)
	assert.Equal(suite.T(), []string{"Prev", "Cancel"}, rowTexts(reply.Keyboard.Rows[len(reply.Keyboard.Rows)-1]))

	// free text re-renders the current page
	reply = suite.send(adminID, "hello?")
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[5-5/5]", reply.Text)

	// past the end clamps to the last page
	reply = suite.press(adminID, PageToken(9))
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[5-5/5]", reply.Text)
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.PayloadPromote, Page: 2}, suite.state(adminID))

	reply = suite.press(adminID, CancelToken())
	assert.Equal(suite.T(), "Cancelled.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(adminID))
}

func (suite *BotTestSuite) TestPageSizeIsCapped() {
	suite.bot = New(suite.services, lock.NewKeyedMutex(), i18n.MustNew("en"), zap.NewNop(), Options{PageSize: 500})
	assert.Equal(suite.T(), repository.MaxPageSize, suite.bot.pageSize)

	for id := int64(3); id <= 5; id++ {
		suite.send(id, "/start")
	}
	reply := suite.send(adminID, "/promote")
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[1-4/4]", reply.Text)
	assert.Equal(suite.T(), []string{"Cancel"}, rowTexts(reply.Keyboard.Rows[len(reply.Keyboard.Rows)-1]))
}

func (suite *BotTestSuite) TestHugePageToken() {
	suite.send(playerID, "/start")
	suite.send(adminID, "/ban")

	reply := suite.press(adminID, "ps:page:9223372036854775807")
	assert.Equal(suite.T(), "This selection is no longer active.", reply.Text)
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.PayloadBan}, suite.state(adminID))

	reply = suite.press(adminID, PageToken(MaxTokenPage))
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n[1-2/2]", reply.Text)
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.PayloadBan}, suite.state(adminID))
}

func (suite *BotTestSuite) TestAdminLastViaSelector() {
	suite.setupCatalog("Session 1", "Before: Q1\nAfter: Q2")
	suite.send(playerID, "/before")
	suite.send(playerID, "A1")
	suite.send(playerID, "/after")
	suite.send(playerID, "A2")

	reply := suite.send(adminID, "/last")
	assert.Equal(suite.T(), "Last journal\n[1-2/2]", reply.Text)
	// the participant with journals comes first
	assert.Equal(suite.T(), SelectToken(playerID), reply.Keyboard.Rows[0][0].Token)
	assert.Equal(suite.T(), "Player (@player) (1)", reply.Keyboard.Rows[0][0].Text)

	reply = suite.press(adminID, reply.Keyboard.Rows[0][0].Token)
	assert.True(suite.T(), strings.HasPrefix(reply.Text, "Last journal:\n\n📅 "))
	assert.Contains(suite.T(), reply.Text, " 'Session 1':\n(BEFORE) Q1 - A1\n(AFTER) Q2 - A2\n")

	reply = suite.send(adminID, "/last5")
	assert.Equal(suite.T(), "Last 5 journals\n[1-2/2]", reply.Text)
	assert.Equal(suite.T(), models.ParticipantSelect{Payload: models.LastPayload(5)}, suite.state(adminID))

	assert.Equal(suite.T(), "No journals found.", suite.press(adminID, SelectToken(adminID)).Text)
}

func (suite *BotTestSuite) TestParticipantsListing() {
	assert.Equal(suite.T(), "No participants found.", suite.send(adminID, "/participants").Text)

	suite.setupCatalog("S", "Before: B1")
	suite.send(playerID, "/before")
	suite.send(playerID, "x")

	reply := suite.send(adminID, "/participants")
	assert.Equal(suite.T(), "📋 <b>Participants:</b>\n👤 Player (@player) - 1 session(s)\n", reply.Text)
}

func (suite *BotTestSuite) TestSelectUnknownParticipant() {
	suite.send(adminID, "/ban")
	reply := suite.press(adminID, SelectToken(404))
	assert.Equal(suite.T(), "Participant not found.", reply.Text)
	assert.Equal(suite.T(), models.NoState{}, suite.state(adminID))
}

func (suite *BotTestSuite) TestTokenOutsideSelection() {
	reply := suite.press(adminID, SelectToken(playerID))
	assert.Equal(suite.T(), "This selection is no longer active.", reply.Text)

	reply = suite.press(adminID, "ps:bogus:1")
	assert.Equal(suite.T(), "This selection is no longer active.", reply.Text)
}

func (suite *BotTestSuite) TestForbiddenLeavesStateUntouched() {
	suite.setupCatalog("S", "Before: B1\nBefore: B2")
	suite.send(playerID, "/before")
	before := suite.state(playerID)

	for _, cmd := range []string{"/session X", "/set_questions", "/ban", "/participants"} {
		reply := suite.send(playerID, cmd)
		assert.Equal(suite.T(), "Only admins are allowed to perform this action. Use /help for details.", reply.Text, cmd)
		assert.Equal(suite.T(), before, suite.state(playerID), cmd)
	}
}

func (suite *BotTestSuite) TestUnknownCommandAndFreeText() {
	assert.Equal(suite.T(), "You are not in a state of handling direct input. Run some command first, use /help to see a list.", suite.send(playerID, "hi").Text)

	suite.setupCatalog("S", "Before: B1\nBefore: B2")
	suite.send(playerID, "/before")
	before := suite.state(playerID)

	assert.Equal(suite.T(), "Unknown command. Use /help to see available commands.", suite.send(playerID, "/nope").Text)
	assert.Equal(suite.T(), before, suite.state(playerID))
}

// P4: every flow-starting command leaves exactly the state it started.
func (suite *BotTestSuite) TestFlowCommandsOverwriteState() {
	suite.setupCatalog("S", "Before: B1\nAfter: A1")
	active := suite.activeID()

	steps := []struct {
		text string
		want models.ConversationState
	}{
		{"/set_questions", models.QuestionsUpdate{SessionID: active}},
		{"/before", suite.flowAt(0)},
		{"/ban", models.ParticipantSelect{Payload: models.PayloadBan}},
		{"/after", suite.flowAt(1)},
		{"/last50", models.ParticipantSelect{Payload: models.LastPayload(50)}},
		{"/set_questions", models.QuestionsUpdate{SessionID: active}},
		{"/help", models.NoState{}},
	}
	for _, step := range steps {
		suite.send(adminID, step.text)
		user, err := suite.services.Users.GetByTelegramID(suite.ctx, adminID)
		require.NoError(suite.T(), err)
		state, err := user.State()
		require.NoError(suite.T(), err, step.text)
		assert.Equal(suite.T(), step.want, state, step.text)
		assert.Equal(suite.T(), step.want.Kind(), user.StateRecord.Kind, step.text)
	}
}

func (suite *BotTestSuite) TestCommandWithBotSuffix() {
	suite.bot.username = "journals_bot"
	assert.Contains(suite.T(), suite.send(playerID, "/help@journals_bot").Text, "Bot allows to create and view journals")
	assert.Equal(suite.T(), "Unknown command. Use /help to see available commands.", suite.send(playerID, "/help@other_bot").Text)
}

func (suite *BotTestSuite) TestHelpDependsOnRole() {
	admin := suite.send(adminID, "/help").Text
	player := suite.send(playerID, "/help").Text
	assert.Contains(suite.T(), admin, "Admin Commands")
	assert.Less(suite.T(), strings.Index(admin, "Admin Commands"), strings.Index(admin, "Player Commands"))
	assert.NotContains(suite.T(), player, "Admin Commands")
	assert.Contains(suite.T(), player, "Player Commands")
}

func (suite *BotTestSuite) TestSessionCommandFinishesAndCarriesOver() {
	suite.setupCatalog("First", "Before: B1\nAfter: A1")

	reply := suite.send(adminID, "/session Second")
	assert.True(suite.T(), strings.HasPrefix(reply.Text, "✅ Session 'First' was finished.\n\n✅ Session 'Second' created successfully!\n\n"))
	assert.Contains(suite.T(), reply.Text, "\n\n📋 <b>Questions:</b>\nBEFORE: B1")
	assert.NotContains(suite.T(), reply.Text, "AFTER: A1")
}

func (suite *BotTestSuite) TestRussianLocale() {
	ev := suite.event(playerID, "/before")
	ev.LanguageCode = "ru"
	reply, err := suite.bot.Handle(suite.ctx, ev)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Активная сессия не найдена. Попросите админа создать её.", reply.Text)
}

func (suite *BotTestSuite) TestMenuAndFailureReply() {
	menu := suite.bot.Menu("en")
	require.NotEmpty(suite.T(), menu)
	assert.Equal(suite.T(), "start", menu[0].Command)
	assert.Equal(suite.T(), "Start the bot", menu[0].Description)
	assert.Equal(suite.T(), "Sorry, an error occurred. Please try again.", suite.bot.FailureReply("").Text)
}

// flowAt is the QAFlow state expected with the cursor at index of the
// active catalog.
func (suite *BotTestSuite) flowAt(index int) models.QAFlow {
	active := suite.activeID()
	ordered, err := suite.services.Questions.GetOrderedQuestions(suite.ctx, active)
	require.NoError(suite.T(), err)
	require.Greater(suite.T(), len(ordered), index)
	return models.QAFlow{SessionID: active, Cursor: index, QuestionID: ordered[index].ID}
}

func (suite *BotTestSuite) activeID() uint {
	active, err := suite.services.Sessions.GetActive(suite.ctx)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), active)
	return active.ID
}

func TestBotTestSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}
