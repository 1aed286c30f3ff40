package monitor

import "time"

type Status struct {
	Telegram         bool      `json:"telegram"`
	DeadLetter       bool      `json:"dead_letter"`
	DeadLetterSize   int       `json:"dead_letter_size"`
	Tasks            int       `json:"tasks"`
	LastTickAt       time.Time `json:"last_tick_at"`
	LastTickFailures int       `json:"last_tick_failures"`
	LastCheck        time.Time `json:"last_check"`
}
