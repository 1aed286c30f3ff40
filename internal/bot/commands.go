package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/remindbot/domain"
	taskUC "github.com/fastygo/remindbot/usecase/task"
)

// ButtonMyTasks is the reply keyboard button that lists tasks.
const ButtonMyTasks = "📋 My tasks"

const (
	usageAdd       = "❌ Wrong format. Use: /add [task] [dd.mm.yyyy hh:mm] [minutes before reminder]"
	usageCompleted = "❌ Use the format: /completed [id]"
	usageDelete    = "❌ Use the format: /delete [id]"
)

const welcomeText = `👋 Hi! I'm your personal task assistant.

I can:
✅ Add tasks with deadlines
⏰ Remind you ahead of time
📋 Show all your tasks
❌ Delete tasks you no longer need

Commands:
/add [task] [dd.mm.yyyy hh:mm] [minutes before reminder] — add a task with a deadline and a reminder
/tasks — list your tasks
/delete [id] — delete a task
/completed [id] — mark a task as done
/help — help

Start by adding a task, for example:
/add Buy milk 25.10.2026 18:00 30`

const helpText = `📋 *Available commands:*

/add [task] [dd.mm.yyyy hh:mm] [reminder X minutes before]
_Example:_ ` + "`/add Call mom 25.12.2026 18:00 30`" + `

/tasks — list your tasks
/delete [ID] — delete a task
/completed [ID] — mark a task as done`

var addPattern = regexp.MustCompile(`^(.+?) (\d{2}\.\d{2}\.\d{4} \d{2}:\d{2})(?: (\d+))?$`)

// Commands renders task use cases as chat replies.
type Commands struct {
	uc     *taskUC.UseCase
	logger *zap.Logger
}

func NewCommands(uc *taskUC.UseCase, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{uc: uc, logger: logger}
}

// Register wires every command into d.
func (c *Commands) Register(d *Dispatcher) {
	d.RegisterCommand("start", c.Start)
	d.RegisterCommand("help", c.Help)
	d.RegisterCommand("add", c.Add)
	d.RegisterCommand("tasks", c.List)
	d.RegisterCommand("completed", c.Complete)
	d.RegisterCommand("delete", c.Delete)
	d.RegisterButton(ButtonMyTasks, c.List)
}

func (c *Commands) Start(ctx context.Context, req Request) Reply {
	return Reply{Text: welcomeText, Keyboard: true}
}

func (c *Commands) Help(ctx context.Context, req Request) Reply {
	return Reply{Text: helpText, Markdown: true}
}

// Unknown answers anything that is not a known command.
func (c *Commands) Unknown(ctx context.Context, req Request) Reply {
	return Reply{Text: "🤔 Unknown command. Send /help to see what I can do."}
}

func (c *Commands) Add(ctx context.Context, req Request) Reply {
	m := addPattern.FindStringSubmatch(strings.TrimSpace(req.Args))
	if m == nil {
		c.logger.Debug("add rejected", zap.Int64("user_id", req.UserID), zap.String("args", req.Args))
		return Reply{Text: usageAdd}
	}

	task, err := c.uc.CreateTask(ctx, taskUC.CreateInput{
		Owner:           req.UserID,
		Text:            m[1],
		Deadline:        m[2],
		ReminderMinutes: m[3],
	})
	if err != nil {
		c.logger.Warn("failed to add task", zap.Int64("user_id", req.UserID), zap.Error(err))
		if domain.IsDomainError(err, domain.ErrCodeInvalid) {
			return Reply{Text: usageAdd}
		}
		return Reply{Text: "❌ Could not add the task, try again later."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Task added: %s\n🕒 Deadline: %s", task.Text, domain.FormatDeadline(task.Deadline))
	if task.ReminderAt != nil {
		fmt.Fprintf(&b, "\n⏰ Reminder %s minutes before the deadline", m[3])
	}
	fmt.Fprintf(&b, "\n🆔 %d", task.ID)
	return Reply{Text: b.String()}
}

func (c *Commands) List(ctx context.Context, req Request) Reply {
	entries, err := c.uc.ListTasks(ctx, req.UserID)
	if err != nil {
		c.logger.Error("failed to list tasks", zap.Int64("user_id", req.UserID), zap.Error(err))
		return Reply{Text: "❌ Could not load your tasks, try again later."}
	}
	if len(entries) == 0 {
		return Reply{Text: "You have no tasks yet 😞"}
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, fmt.Sprintf("%d. %s\n   🕒 Deadline: %s\n   Status: %s",
			e.ID, e.Text, domain.FormatDeadline(e.Deadline), statusLabel(e)))
	}
	return Reply{Text: "📋 Your tasks:\n" + strings.Join(items, "\n\n")}
}

func (c *Commands) Complete(ctx context.Context, req Request) Reply {
	id, err := domain.ParseTaskID(firstField(req.Args))
	if err != nil {
		return Reply{Text: usageCompleted}
	}
	if err := c.uc.CompleteTask(ctx, req.UserID, id); err != nil {
		return Reply{Text: mutationError(err, "❌ You can't complete someone else's task.")}
	}
	return Reply{Text: fmt.Sprintf("✅ Task %d marked as done.", id)}
}

func (c *Commands) Delete(ctx context.Context, req Request) Reply {
	id, err := domain.ParseTaskID(firstField(req.Args))
	if err != nil {
		return Reply{Text: usageDelete}
	}
	if err := c.uc.DeleteTask(ctx, req.UserID, id); err != nil {
		return Reply{Text: mutationError(err, "❌ You can't delete someone else's task.")}
	}
	return Reply{Text: fmt.Sprintf("✅ Task %d deleted.", id)}
}

func mutationError(err error, forbidden string) string {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return "❌ No task with this ID."
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return forbidden
	default:
		return "❌ Something went wrong, try again later."
	}
}

func statusLabel(e taskUC.Entry) string {
	switch e.Status {
	case domain.StatusCompleted:
		return "✅ Done"
	case domain.StatusOverdue:
		return "❌ Overdue"
	default:
		return "⏳ Left: " + domain.FormatRemaining(e.Remaining)
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
