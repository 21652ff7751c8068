package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token invalide")

// Claims : sub porte l'id du compte, sid la clé de la session enregistrée.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens émet et vérifie les jetons HS256 de l'API.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

func (t *Tokens) Issue(accountID, sessionID string) (string, time.Time, error) {
	return t.IssueUntil(accountID, sessionID, time.Time{})
}

// Expiry renvoie now+TTL, ramené à notAfter s'il est plus proche. Un
// notAfter nul ne borne rien.
func (t *Tokens) Expiry(notAfter time.Time) time.Time {
	exp := t.now().Add(t.ttl)
	if !notAfter.IsZero() && notAfter.Before(exp) {
		return notAfter
	}
	return exp
}

// IssueUntil émet un jeton qui n'expire pas après notAfter, l'expiration de
// la session de la plateforme.
func (t *Tokens) IssueUntil(accountID, sessionID string, notAfter time.Time) (string, time.Time, error) {
	now := t.now()
	exp := t.Expiry(notAfter)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("signature invalide")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
