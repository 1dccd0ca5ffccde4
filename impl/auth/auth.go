package auth

import (
	"context"
	"errors"
	"fmt"
	"swagportal/entity"
	"swagportal/lib/clock"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Database interface {
	UserByID(ctx context.Context, id string) (*entity.User, error)
}

// Claims carries the session user in the standard subject claim
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Auth struct {
	db       Database
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	clock    clock.Clock
}

func New(db Database, secret, issuer, audience string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		db:       db,
		key:      []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		clock:    clock.System{},
	}
}

func (a *Auth) SetClock(c clock.Clock) {
	a.clock = c
}

// IssueToken signs a session token for the user; the front end obtains it after login
func (a *Auth) IssueToken(user *entity.User) (string, error) {
	now := a.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Id,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.issuer,
			Audience:  []string{a.audience},
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry and returns the subject
func (a *Auth) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.key, nil
	},
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// UserByToken resolves the session user from a bearer token
func (a *Auth) UserByToken(ctx context.Context, token string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	userId, err := a.Verify(token)
	if err != nil {
		return nil, err
	}
	return a.db.UserByID(ctx, userId)
}
