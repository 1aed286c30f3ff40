package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/remindbot/domain"
)

const defaultAPIURL = "https://api.telegram.org"

// Config describes how to reach the Bot API.
type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
	// Dial overrides the network dialer, mostly for tests.
	Dial fasthttp.DialFunc
}

// Client is a minimal Bot API client built on fasthttp.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
}

// ErrMissingToken is returned when the bot token is not configured.
var ErrMissingToken = errors.New("telegram bot token is empty")

// NewClient validates the configuration and prepares a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "remindbot",
			Dial:                cfg.Dial,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL: strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.Token + "/",
		timeout: cfg.Timeout,
	}, nil
}

// GetMe returns the bot's own account; used as a connectivity probe.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, c.timeout, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new messages starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, poll time.Duration) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(poll.Seconds()),
		AllowedUpdates: []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", req, poll+c.timeout, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage posts a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) (*Message, error) {
	var sent Message
	if err := c.call(ctx, "sendMessage", msg, c.timeout, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// Send delivers a plain notification to a user's private chat.
func (c *Client) Send(ctx context.Context, userID int64, text string) error {
	if _, err := c.SendMessage(ctx, SendMessageRequest{ChatID: userID, Text: text}); err != nil {
		return domain.DeliveryError(err)
	}
	return nil
}

type result struct {
	status int
	body   []byte
	err    error
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, timeout time.Duration, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// fasthttp has no context support; the request runs in its own
	// goroutine so a cancelled ctx returns immediately.
	done := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.baseURL + method)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(body)

		err := c.http.DoDeadline(req, resp, deadline)
		done <- result{
			status: resp.StatusCode(),
			body:   append([]byte(nil), resp.Body()...),
			err:    err,
		}
	}()

	var res result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("telegram %s: %w", method, res.err)
	}

	var env apiResponse
	if err := json.Unmarshal(res.body, &env); err != nil {
		return fmt.Errorf("telegram %s: status %d: %w", method, res.status, err)
	}
	if !env.OK {
		apiErr := &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
		if env.Parameters != nil {
			apiErr.RetryAfter = env.Parameters.RetryAfter
		}
		return apiErr
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}
