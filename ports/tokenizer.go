package ports

import "github.com/grandigitals/superteam-academy/core"

// Tokenizer converts sessions to signed bearer tokens and back.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
