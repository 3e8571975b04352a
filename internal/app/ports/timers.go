package ports

import "time"

// TimersPort schedules one-shot tasks by id. UpdateTimer reschedules a pending
// timer and reports false when the id is unknown or already fired.
type TimersPort interface {
	AddTimer(id string, interval time.Duration, task func())
	UpdateTimer(id string, newInterval time.Duration) bool
	RemoveTimer(id string)
}
