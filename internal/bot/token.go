package bot

import (
	"strconv"
	"strings"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
)

// Selector tokens are "<namespace>:<kind>:<value>". They always carry an
// identity or an absolute page, never a position on the rendered page.
const (
	tokenNamespace = "ps"
	tokenSep       = ":"

	// MaxTokenPage bounds the page a token may ask for.
	MaxTokenPage = 1_000_000
)

// TokenKind is what a selector token asks for.
type TokenKind string

const (
	TokenPage   TokenKind = "page"
	TokenSelect TokenKind = "select"
	TokenCancel TokenKind = "cancel"
)

// Token is a decoded selector token.
type Token struct {
	Kind       TokenKind
	Page       int
	TelegramID int64
}

// PageToken asks to show page (0-based).
func PageToken(page int) string {
	return tokenNamespace + tokenSep + string(TokenPage) + tokenSep + strconv.Itoa(page)
}

// SelectToken picks the participant with telegramID.
func SelectToken(telegramID int64) string {
	return tokenNamespace + tokenSep + string(TokenSelect) + tokenSep + strconv.FormatInt(telegramID, 10)
}

// CancelToken abandons the selection.
func CancelToken() string {
	return tokenNamespace + tokenSep + string(TokenCancel)
}

// IsToken reports whether data is in the selector namespace.
func IsToken(data string) bool {
	return strings.HasPrefix(data, tokenNamespace+tokenSep)
}

// ParseToken decodes a selector token. A cancel token may carry an empty
// value ("ps:cancel:").
func ParseToken(data string) (Token, error) {
	parts := strings.SplitN(data, tokenSep, 3)
	if len(parts) < 2 || parts[0] != tokenNamespace {
		return Token{}, apperrors.Newf(apperrors.ErrInvalidToken, "%q", data)
	}
	value := ""
	if len(parts) == 3 {
		value = parts[2]
	}

	switch TokenKind(parts[1]) {
	case TokenCancel:
		if value != "" {
			break
		}
		return Token{Kind: TokenCancel}, nil
	case TokenPage:
		page, err := strconv.Atoi(value)
		if err != nil || page < 0 || page > MaxTokenPage {
			break
		}
		return Token{Kind: TokenPage, Page: page}, nil
	case TokenSelect:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			break
		}
		return Token{Kind: TokenSelect, TelegramID: id}, nil
	}
	return Token{}, apperrors.Newf(apperrors.ErrInvalidToken, "%q", data)
}
