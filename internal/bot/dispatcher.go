package bot

import (
	"context"
	"strings"
	"sync"
)

// Request is one incoming chat message.
type Request struct {
	UserID int64
	ChatID int64
	// Args is the text after the command word.
	Args string
	Text string
}

// Reply is what the bot answers with.
type Reply struct {
	Text     string
	Markdown bool
	Keyboard bool
}

type HandlerFunc func(ctx context.Context, req Request) Reply

// Dispatcher routes slash commands and exact-text buttons to handlers.
type Dispatcher struct {
	commands map[string]HandlerFunc
	buttons  map[string]HandlerFunc
	fallback HandlerFunc
	mu       sync.RWMutex
}

func NewDispatcher(fallback HandlerFunc) *Dispatcher {
	return &Dispatcher{
		commands: make(map[string]HandlerFunc),
		buttons:  make(map[string]HandlerFunc),
		fallback: fallback,
	}
}

// RegisterCommand binds /name to handler.
func (d *Dispatcher) RegisterCommand(name string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[strings.ToLower(strings.TrimPrefix(name, "/"))] = handler
}

// RegisterButton binds an exact message text, such as a keyboard button, to handler.
func (d *Dispatcher) RegisterButton(text string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buttons[text] = handler
}

// Dispatch finds the handler for req.Text and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	text := strings.TrimSpace(req.Text)

	d.mu.RLock()
	handler, ok := d.buttons[text]
	if !ok {
		var name string
		name, req.Args, ok = parseCommand(text)
		if ok {
			handler, ok = d.commands[name]
		}
	}
	d.mu.RUnlock()

	if !ok {
		if d.fallback == nil {
			return Reply{}
		}
		handler = d.fallback
	}
	return handler(ctx, req)
}

// parseCommand splits "/add@my_bot rest" into "add" and "rest".
func parseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	word, args, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	if word == "" {
		return "", "", false
	}
	return strings.ToLower(word), strings.TrimSpace(args), true
}
