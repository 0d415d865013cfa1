package api

import (
	"net/http"
	"strconv"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/middleware"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultJournalSpan = 1
	maxJournalSpan     = 50
)

type adminHandler struct {
	services *service.Services
	log      *zap.Logger
}

func newAdminHandler(services *service.Services, log *zap.Logger) *adminHandler {
	return &adminHandler{services: services, log: log}
}

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	Password string `json:"password" binding:"required"`
}

// ActiveSessionResponse is the body of GET /api/v1/sessions/active.
type ActiveSessionResponse struct {
	Session   *models.Session    `json:"session"`
	Questions []*models.Question `json:"questions"`
}

// ParticipantsResponse is one page of participants.
type ParticipantsResponse struct {
	Items    []models.Participant `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// JournalsResponse is the journal history of one user.
type JournalsResponse struct {
	User     *models.User             `json:"user"`
	Sessions []models.SessionJournals `json:"sessions"`
}

func (h *adminHandler) issueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}

	resp, err := h.services.Auth.IssueToken(c.Request.Context(), req.Password)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) activeSession(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := h.services.Sessions.GetActive(ctx)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if session == nil {
		middleware.Abort(c, apperrors.New(apperrors.ErrNoActiveSession))
		return
	}

	questions, err := h.services.Questions.GetOrderedQuestions(ctx, session.ID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ActiveSessionResponse{Session: session, Questions: questions})
}

func (h *adminHandler) participants(c *gin.Context) {
	page, err := intQuery(c, "page", 1, 1, 0)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	pageSize, err := intQuery(c, "page_size", defaultPageSize, 1, maxPageSize)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	items, total, err := h.services.Users.Participants(c.Request.Context(), page, pageSize, true)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if items == nil {
		items = []models.Participant{}
	}
	c.JSON(http.StatusOK, ParticipantsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *adminHandler) journals(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		middleware.Abort(c, apperrors.New(apperrors.ErrInvalidParam, "telegram_id"))
		return
	}
	sessions, err := intQuery(c, "sessions", defaultJournalSpan, 1, maxJournalSpan)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.services.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	history, err := h.services.Journals.LastSessions(ctx, user.ID, sessions)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if history == nil {
		history = []models.SessionJournals{}
	}
	c.JSON(http.StatusOK, JournalsResponse{User: user, Sessions: history})
}

// intQuery parses an optional integer query parameter; max 0 means unbounded.
func intQuery(c *gin.Context, name string, def, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || (max > 0 && v > max) {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "%s=%q", name, raw)
	}
	return v, nil
}
