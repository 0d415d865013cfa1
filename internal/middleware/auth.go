package middleware

import (
	"errors"
	"strings"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/gin-gonic/gin"
)

// Context keys set by the middlewares of this package.
const (
	ContextSubject   = "subject"
	ContextRole      = "role"
	ContextToken     = "token"
	ContextRequestID = "requestID"
)

// AuthMiddleware guards the admin API with bearer tokens.
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAdmin rejects requests without a valid admin token.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			Abort(c, apperrors.New(apperrors.ErrAuthentication, "missing bearer token"))
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			Abort(c, err)
			return
		}
		if claims.Role != string(models.RoleAdmin) {
			Abort(c, apperrors.New(apperrors.ErrForbidden, "admin role required"))
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, token)

		c.Next()
	}
}

// extractToken reads "Authorization: Bearer <t>" or X-Access-Token.
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.Fields(bearerToken)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	return ""
}

// Abort writes err as an ErrorResponse and stops the chain.
func Abort(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, GetRequestID(c)))
}

// GetSubject returns the token subject of an authenticated request.
func GetSubject(c *gin.Context) (string, bool) {
	if subject, exists := c.Get(ContextSubject); exists {
		if s, ok := subject.(string); ok {
			return s, true
		}
	}
	return "", false
}

// IsAuthenticated reports whether RequireAdmin accepted the request.
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ContextSubject)
	return exists
}
