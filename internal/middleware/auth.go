// Package middleware provides authentication, logging, rate limiting and
// tracing middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"folio/internal/models"
	"folio/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "folio-api"
	tokenAudience = "folio-client"

	localsUserID = "userID"
	localsClaims = "claims"
)

// ErrTokenRevoked is returned by ParseToken for a logged-out token.
var ErrTokenRevoked = errors.New("token has been revoked")

// Claims are the JWT claims issued at login.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// Authenticator issues and verifies HS256 bearer tokens. When a Redis client
// is configured, logged-out token ids are kept there until they expire.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator. rdb may be nil, in which case
// tokens cannot be revoked before they expire.
func NewAuthenticator(secret string, ttl time.Duration, rdb *redis.Client) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		rdb:    rdb,
		now:    time.Now,
	}
}

// IssueToken signs a token for the user.
func (a *Authenticator) IssueToken(userID uint, name string) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}
	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies the signature, standard claims and revocation status.
func (a *Authenticator) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token has no id")
	}

	revoked, err := a.isRevoked(ctx, claims.ID)
	if err != nil {
		// Redis being down must not lock every user out.
		Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

func (a *Authenticator) isRevoked(ctx context.Context, jti string) (bool, error) {
	if a.rdb == nil {
		return false, nil
	}
	n, err := a.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke blacklists the token id until the token would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil {
		return errors.New("token revocation requires redis")
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(a.now())
	}
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, revokedKey(claims.ID), 1, ttl).Err()
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (a *Authenticator) authenticate(c *fiber.Ctx) error {
	raw, ok := bearerToken(c)
	if !ok {
		return models.NewUnauthorizedError("Unauthenticated.")
	}
	claims, err := a.ParseToken(c.UserContext(), raw)
	if err != nil {
		observability.AuthEvents.WithLabelValues("token_rejected").Inc()
		return models.NewUnauthorizedError("Unauthenticated.")
	}
	userID, _ := claims.UserID()

	c.Locals(localsUserID, userID)
	c.Locals(localsClaims, claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return nil
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.authenticate(c); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// CallerID returns the authenticated user id, or 0 for anonymous requests.
func CallerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localsUserID).(uint)
	return id
}

// CallerClaims returns the verified token claims, or nil.
func CallerClaims(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(localsClaims).(*Claims)
	return claims
}
