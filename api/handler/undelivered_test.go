package handler

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/remindbot/api/transport"
	"github.com/fastygo/remindbot/internal/infrastructure/deadletter"
)

type brokenJournal struct{}

func (brokenJournal) Recent(owner int64, limit int) ([]deadletter.Entry, error) {
	return nil, errors.New("database not open")
}

func TestUndeliveredHandler_StoreFailure(t *testing.T) {
	is := is.New(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewUndeliveredHandler(brokenJournal{}, nil, zap.New(core))

	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI("/api/v1/undelivered")
	ctx.Request.Header.Set("X-User-ID", "7")
	h.List(&ctx)

	is.Equal(ctx.Response.StatusCode(), fasthttp.StatusInternalServerError)
	var env transport.Envelope
	is.NoErr(json.Unmarshal(ctx.Response.Body(), &env))
	is.Equal(env.Status, transport.StatusError)
	is.Equal(env.Code, "INTERNAL")

	entries := logs.All()
	is.Equal(len(entries), 1)
	is.Equal(entries[0].Message, "request failed")
	is.True(strings.Contains(entries[0].ContextMap()["response"].(string), `"code":"INTERNAL"`))
}

func TestUndeliveredHandler_MissingUser(t *testing.T) {
	is := is.New(t)
	h := NewUndeliveredHandler(nil, nil, nil)

	var ctx fasthttp.RequestCtx
	h.List(&ctx)
	is.Equal(ctx.Response.StatusCode(), fasthttp.StatusUnauthorized)
}
