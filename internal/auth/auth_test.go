package auth

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func protected(a *Authenticator, tiers ...string) fasthttp.RequestHandler {
	ok := func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(Subject(ctx) + ":" + Tier(ctx))
	}
	if len(tiers) > 0 {
		return a.Middleware(RequireTier(ok, tiers...))
	}
	return a.Middleware(ok)
}

func serve(h fasthttp.RequestHandler, setup func(*fasthttp.RequestCtx)) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/api/export")
	if setup != nil {
		setup(ctx)
	}
	h(ctx)
	return ctx
}

func TestMissingToken(t *testing.T) {
	ctx := serve(protected(New("secret", discard)), nil)

	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), "not provided") {
		t.Fatalf("unexpected body %s", ctx.Response.Body())
	}
}

func TestBrowserRedirect(t *testing.T) {
	ctx := serve(protected(New("secret", discard)), func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set("Accept", "text/html,application/xhtml+xml")
	})

	if ctx.Response.StatusCode() != fasthttp.StatusFound {
		t.Fatalf("expected 302, got %d", ctx.Response.StatusCode())
	}
	if loc := string(ctx.Response.Header.Peek("Location")); !strings.HasSuffix(loc, "/login") {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
}

func TestBearerToken(t *testing.T) {
	a := New("secret", discard)
	tok, err := a.Issue("user-1", TierPro, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := serve(protected(a), func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set("Authorization", "Bearer "+tok)
	})

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if string(ctx.Response.Body()) != "user-1:pro" {
		t.Fatalf("expected user-1:pro, got %s", ctx.Response.Body())
	}
}

func TestCookieToken(t *testing.T) {
	a := New("secret", discard)
	tok, _ := a.Issue("user-2", "", time.Hour)

	ctx := serve(protected(a), func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.SetCookie(CookieName, tok)
	})

	if string(ctx.Response.Body()) != "user-2:free" {
		t.Fatalf("expected user-2:free, got %s", ctx.Response.Body())
	}
}

func TestRejectsBadTokens(t *testing.T) {
	a := New("secret", discard)
	expired, _ := a.Issue("user-1", TierPro, -time.Minute)
	forged, _ := New("other", discard).Issue("user-1", TierPro, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Tier: TierPro}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{"expired": expired, "forged": forged, "none": none, "garbage": "abc"} {
		ctx := serve(protected(a), func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Set("Authorization", "Bearer "+tok)
		})
		if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, ctx.Response.StatusCode())
		}
	}
}

func TestMalformedHeader(t *testing.T) {
	ctx := serve(protected(New("secret", discard)), func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set("Authorization", "Token abc")
	})
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", ctx.Response.StatusCode())
	}
}

func TestRequireTier(t *testing.T) {
	a := New("secret", discard)
	free, _ := a.Issue("user-1", TierFree, time.Hour)
	pro, _ := a.Issue("user-1", TierEnterprise, time.Hour)
	h := protected(a, TierPro, TierEnterprise)

	ctx := serve(h, func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set("Authorization", "Bearer "+free)
	})
	if ctx.Response.StatusCode() != fasthttp.StatusForbidden {
		t.Fatalf("expected 403, got %d", ctx.Response.StatusCode())
	}

	ctx = serve(h, func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set("Authorization", "Bearer "+pro)
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
}
