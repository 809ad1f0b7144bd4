// Package auth verifies HMAC-signed JWTs on incoming fasthttp requests.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"

	"vestquest-engine/internal/model"
)

const (
	CookieName = "auth_token"

	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"

	subjectKey = "auth.subject"
	tierKey    = "auth.tier"
)

type Claims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	key []byte
	log *slog.Logger
}

func New(secret string, log *slog.Logger) *Authenticator {
	return &Authenticator{key: []byte(secret), log: log}
}

// Issue signs a token for subject on tier, valid for ttl.
func (a *Authenticator) Issue(subject, tier string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Middleware rejects requests without a valid token. The token is read from
// the auth_token cookie, then from an "Authorization: Bearer" header.
func (a *Authenticator) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		tokenStr, err := token(ctx)
		if err != nil {
			deny(ctx, err.Error())
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			return a.key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			a.log.Info("Rejected token", "path", string(ctx.Path()), "error", err)
			ctx.Response.Header.DelClientCookie(CookieName)
			deny(ctx, "Invalid or expired token")
			return
		}

		tier := claims.Tier
		if tier == "" {
			tier = TierFree
		}
		ctx.SetUserValue(subjectKey, claims.Subject)
		ctx.SetUserValue(tierKey, tier)
		next(ctx)
	}
}

// RequireTier lets the request through only for the listed tiers. It must run
// inside Middleware.
func RequireTier(next fasthttp.RequestHandler, tiers ...string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !slices.Contains(tiers, Tier(ctx)) {
			writeJSON(ctx, fasthttp.StatusForbidden, "Subscription tier does not include this feature")
			return
		}
		next(ctx)
	}
}

func Subject(ctx *fasthttp.RequestCtx) string {
	s, _ := ctx.UserValue(subjectKey).(string)
	return s
}

func Tier(ctx *fasthttp.RequestCtx) string {
	t, _ := ctx.UserValue(tierKey).(string)
	return t
}

func token(ctx *fasthttp.RequestCtx) (string, error) {
	if c := ctx.Request.Header.Cookie(CookieName); len(c) > 0 {
		return string(c), nil
	}

	header := ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)
	if len(header) == 0 {
		return "", errors.New("Authorization token not provided")
	}
	scheme, tok, ok := bytes.Cut(header, []byte(" "))
	if !ok || !bytes.EqualFold(scheme, []byte("bearer")) || len(tok) == 0 {
		return "", errors.New("Invalid Authorization header format")
	}
	return string(tok), nil
}

// deny redirects browsers to the login page and answers API clients with 401.
func deny(ctx *fasthttp.RequestCtx, message string) {
	if bytes.Contains(ctx.Request.Header.Peek(fasthttp.HeaderAccept), []byte("text/html")) {
		ctx.Redirect("/login", fasthttp.StatusFound)
		return
	}
	writeJSON(ctx, fasthttp.StatusUnauthorized, message)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, message string) {
	body, err := json.Marshal(model.ErrorResponse{Status: status, Message: message})
	if err != nil {
		body = []byte(fmt.Sprintf(`{"status":%d}`, status))
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
