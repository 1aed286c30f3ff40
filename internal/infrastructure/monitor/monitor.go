package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/remindbot/internal/infrastructure/telegram"
	"github.com/fastygo/remindbot/internal/services"
)

// TelegramProbe checks that the Bot API answers.
type TelegramProbe interface {
	GetMe(ctx context.Context) (*telegram.User, error)
}

// Sizer reports the number of journaled items.
type Sizer interface {
	Size() (int, error)
}

// TaskCounter reports the number of stored tasks.
type TaskCounter interface {
	Count(ctx context.Context) (int, error)
}

// TickSource exposes the scheduler's latest tick.
type TickSource interface {
	LastTick() services.TickReport
}

type Monitor struct {
	telegram   TelegramProbe
	deadLetter Sizer
	tasks      TaskCounter
	ticks      TickSource

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(tg TelegramProbe, deadLetter Sizer, tasks TaskCounter, ticks TickSource, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		telegram:   tg,
		deadLetter: deadLetter,
		tasks:      tasks,
		ticks:      ticks,
		interval:   interval,
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and stores the result.
func (m *Monitor) Refresh() {
	deadLetterOK, deadLetterSize := m.checkDeadLetter()
	status := Status{
		Telegram:       m.checkTelegram(),
		DeadLetter:     deadLetterOK,
		DeadLetterSize: deadLetterSize,
		Tasks:          m.countTasks(),
		LastCheck:      time.Now(),
	}
	if m.ticks != nil {
		last := m.ticks.LastTick()
		status.LastTickAt = last.At
		status.LastTickFailures = last.Failures
	}

	m.mu.Lock()
	prev := m.status.Telegram
	m.status = status
	m.mu.Unlock()

	if prev != status.Telegram {
		m.logger.Info("telegram connectivity changed", zap.Bool("online", status.Telegram))
	}
}

func (m *Monitor) checkTelegram() bool {
	if m.telegram == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := m.telegram.GetMe(ctx)
	if err != nil {
		m.logger.Warn("telegram probe failed", zap.Error(err))
	}
	return err == nil
}

// checkDeadLetter treats a disabled journal as healthy.
func (m *Monitor) checkDeadLetter() (bool, int) {
	if m.deadLetter == nil {
		return true, 0
	}
	size, err := m.deadLetter.Size()
	if err != nil {
		m.logger.Warn("dead letter size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}

func (m *Monitor) countTasks() int {
	if m.tasks == nil {
		return 0
	}
	n, err := m.tasks.Count(context.Background())
	if err != nil {
		return 0
	}
	return n
}
