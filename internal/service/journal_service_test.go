package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type JournalServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	services *Services
	user     *models.User
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = repository.SetupTestDB()
	suite.services = NewServices(suite.db, DefaultConfig(), zap.NewNop())
	suite.user = repository.SeedUser(suite.T(), suite.db, 500, "player", models.RolePlayer)
}

func (suite *JournalServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *JournalServiceTestSuite) TestRecordTwiceKeepsOneRow() {
	session, questions := repository.SeedSession(suite.T(), suite.db, "S", []string{"B1"}, nil)

	_, err := suite.services.Journals.Record(suite.ctx, suite.user.ID, session.ID, questions[0].ID, "first")
	require.NoError(suite.T(), err)
	journal, err := suite.services.Journals.Record(suite.ctx, suite.user.ID, session.ID, questions[0].ID, "second")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "second", journal.Answer)

	var rows []models.Journal
	require.NoError(suite.T(), suite.db.Find(&rows).Error)
	require.Len(suite.T(), rows, 1)
	assert.Equal(suite.T(), "second", rows[0].Answer)
}

func (suite *JournalServiceTestSuite) TestLastFiveOfSevenSessions() {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var sessionIDs []uint
	for i := 0; i < 7; i++ {
		session, questions := repository.SeedSession(suite.T(), suite.db, fmt.Sprintf("S%d", i), []string{"B"}, []string{"A"})
		sessionIDs = append(sessionIDs, session.ID)
		for j, q := range questions {
			journal := &models.Journal{
				UserID:     suite.user.ID,
				SessionID:  session.ID,
				QuestionID: q.ID,
				Answer:     fmt.Sprintf("answer %d/%d", i, j),
				CreatedAt:  base.Add(time.Duration(i)*24*time.Hour + time.Duration(j)*time.Minute),
			}
			require.NoError(suite.T(), suite.db.Create(journal).Error)
		}
	}

	result, err := suite.services.Journals.LastSessions(suite.ctx, suite.user.ID, 5)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 5)
	for k, group := range result {
		assert.Equal(suite.T(), sessionIDs[6-k], group.Session.ID, "position %d", k)
		require.Len(suite.T(), group.Entries, 2)
		assert.Equal(suite.T(), models.QuestionBefore, group.Entries[0].QuestionType)
		assert.Equal(suite.T(), models.QuestionAfter, group.Entries[1].QuestionType)
		assert.True(suite.T(), group.LastAnswerAt.Equal(group.Entries[1].CreatedAt))
	}

	all, err := suite.services.Journals.LastSessions(suite.ctx, suite.user.ID, 50)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 7)
}

func (suite *JournalServiceTestSuite) TestEntriesSortedByAnswerTime() {
	session, questions := repository.SeedSession(suite.T(), suite.db, "S", []string{"B1", "B2"}, nil)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(suite.T(), suite.db.Create(&models.Journal{
		UserID: suite.user.ID, SessionID: session.ID, QuestionID: questions[1].ID, Answer: "early", CreatedAt: base,
	}).Error)
	require.NoError(suite.T(), suite.db.Create(&models.Journal{
		UserID: suite.user.ID, SessionID: session.ID, QuestionID: questions[0].ID, Answer: "late", CreatedAt: base.Add(time.Minute),
	}).Error)

	result, err := suite.services.Journals.LastSessions(suite.ctx, suite.user.ID, 1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 1)
	assert.Equal(suite.T(), "early", result[0].Entries[0].Answer)
	assert.Equal(suite.T(), "late", result[0].Entries[1].Answer)
}

func (suite *JournalServiceTestSuite) TestLastSessionsEmpty() {
	result, err := suite.services.Journals.LastSessions(suite.ctx, suite.user.ID, 5)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}

func (suite *JournalServiceTestSuite) TestLastAnsweredIndex() {
	session, _ := repository.SeedSession(suite.T(), suite.db, "S", []string{"B1", "B2"}, []string{"A1", "A2"})
	ordered, err := suite.services.Questions.GetOrderedQuestions(suite.ctx, session.ID)
	require.NoError(suite.T(), err)

	idx, err := suite.services.Journals.LastAnsweredIndex(suite.ctx, suite.user.ID, session.ID, ordered)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), -1, idx)

	_, err = suite.services.Journals.Record(suite.ctx, suite.user.ID, session.ID, ordered[2].ID, "a1")
	require.NoError(suite.T(), err)
	_, err = suite.services.Journals.Record(suite.ctx, suite.user.ID, session.ID, ordered[0].ID, "b1")
	require.NoError(suite.T(), err)

	idx, err = suite.services.Journals.LastAnsweredIndex(suite.ctx, suite.user.ID, session.ID, ordered)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, idx)
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
