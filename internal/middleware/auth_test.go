package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/matryer/is"
	"github.com/valyala/fasthttp"
)

func run(t *testing.T, header, spoofed string) (int, string) {
	t.Helper()
	var seen string
	handler := JWTAuth("secret", nil)(func(ctx *fasthttp.RequestCtx) {
		seen = string(ctx.Request.Header.Peek("X-User-ID"))
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	var ctx fasthttp.RequestCtx
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}
	if spoofed != "" {
		ctx.Request.Header.Set("X-User-ID", spoofed)
	}
	handler(&ctx)
	return ctx.Response.StatusCode(), seen
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTAuth(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"user_id": 42})

	t.Run("forwards user id", func(t *testing.T) {
		is := is.New(t)
		status, seen := run(t, "Bearer "+valid, "1")
		is.Equal(status, fasthttp.StatusOK)
		is.Equal(seen, "42")
	})

	t.Run("missing token drops spoofed header", func(t *testing.T) {
		is := is.New(t)
		status, seen := run(t, "", "1")
		is.Equal(status, fasthttp.StatusUnauthorized)
		is.Equal(seen, "")
	})

	t.Run("wrong secret", func(t *testing.T) {
		is := is.New(t)
		bad := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": 42})
		status, _ := run(t, "Bearer "+bad, "")
		is.Equal(status, fasthttp.StatusUnauthorized)
	})

	t.Run("unsigned token", func(t *testing.T) {
		is := is.New(t)
		none := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": 42})
		status, _ := run(t, none, "")
		is.Equal(status, fasthttp.StatusUnauthorized)
	})

	t.Run("no user id claim", func(t *testing.T) {
		is := is.New(t)
		anon := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "x"})
		status, _ := run(t, "Bearer "+anon, "")
		is.Equal(status, fasthttp.StatusUnauthorized)
	})
}

func TestUserIDClaim(t *testing.T) {
	is := is.New(t)

	id, ok := userIDClaim(float64(7))
	is.True(ok)
	is.Equal(id, int64(7))

	id, ok = userIDClaim("8")
	is.True(ok)
	is.Equal(id, int64(8))

	_, ok = userIDClaim(1.5)
	is.True(!ok)
	_, ok = userIDClaim("abc")
	is.True(!ok)
	_, ok = userIDClaim(nil)
	is.True(!ok)
}
