package timers

import (
	"sync"
	"time"
)

// Timer is a one-shot task. rounds counts the full wheel turns left before it is due.
type Timer struct {
	ID       string
	Interval time.Duration
	Task     func()
	rounds   int
}

type slot struct {
	timers map[string]*Timer
}

// TimingWheel schedules one-shot tasks with tick precision. Due tasks run one
// after another on the wheel goroutine, outside the wheel lock, so a task may
// add, update or remove timers.
type TimingWheel struct {
	tickDuration time.Duration
	slots        []*slot
	index        map[string]int
	currentPos   int
	slotsCount   int
	mutex        sync.Mutex
	ticker       *time.Ticker
	done         chan struct{}
	stopOnce     sync.Once
}

func NewTimingWheel(tickDuration time.Duration, slotsCount int) *TimingWheel {
	tw := newWheel(tickDuration, slotsCount)
	tw.ticker = time.NewTicker(tickDuration)
	go tw.start()
	return tw
}

func newWheel(tickDuration time.Duration, slotsCount int) *TimingWheel {
	if tickDuration <= 0 {
		tickDuration = 10 * time.Millisecond
	}
	if slotsCount <= 0 {
		slotsCount = 512
	}

	tw := &TimingWheel{
		tickDuration: tickDuration,
		slotsCount:   slotsCount,
		slots:        make([]*slot, slotsCount),
		index:        make(map[string]int),
		done:         make(chan struct{}),
	}
	for i := range tw.slots {
		tw.slots[i] = &slot{timers: make(map[string]*Timer)}
	}

	return tw
}

func (tw *TimingWheel) start() {
	for {
		select {
		case <-tw.ticker.C:
			tw.tick()
		case <-tw.done:
			return
		}
	}
}

func (tw *TimingWheel) tick() {
	tw.mutex.Lock()
	currentSlot := tw.slots[tw.currentPos]

	var due []*Timer
	for id, timer := range currentSlot.timers {
		if timer.rounds > 0 {
			timer.rounds--
			continue
		}
		due = append(due, timer)
		delete(currentSlot.timers, id)
		delete(tw.index, id)
	}

	tw.currentPos = (tw.currentPos + 1) % tw.slotsCount
	tw.mutex.Unlock()

	for _, timer := range due {
		timer.Task()
	}
}

// advance runs every tick that fits into d without waiting for the ticker.
func (tw *TimingWheel) advance(d time.Duration) {
	for range tw.ticksFor(d) {
		tw.tick()
	}
}

func (tw *TimingWheel) ticksFor(d time.Duration) int {
	ticks := int((d + tw.tickDuration - 1) / tw.tickDuration)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

func (tw *TimingWheel) placeLocked(t *Timer) {
	offset := tw.ticksFor(t.Interval) - 1
	pos := (tw.currentPos + offset) % tw.slotsCount
	t.rounds = offset / tw.slotsCount

	tw.slots[pos].timers[t.ID] = t
	tw.index[t.ID] = pos
}

func (tw *TimingWheel) unplaceLocked(id string) (*Timer, bool) {
	pos, ok := tw.index[id]
	if !ok {
		return nil, false
	}
	t := tw.slots[pos].timers[id]
	delete(tw.slots[pos].timers, id)
	delete(tw.index, id)
	return t, true
}

// AddTimer schedules task to run once after interval. An existing timer with
// the same id is replaced.
func (tw *TimingWheel) AddTimer(id string, interval time.Duration, task func()) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.unplaceLocked(id)
	tw.placeLocked(&Timer{
		ID:       id,
		Interval: interval,
		Task:     task,
	})
}

func (tw *TimingWheel) RemoveTimer(id string) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.unplaceLocked(id)
}

// UpdateTimer restarts a pending timer with a new interval counted from now.
// It reports false when the timer already fired or was removed.
func (tw *TimingWheel) UpdateTimer(id string, newInterval time.Duration) bool {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	t, ok := tw.unplaceLocked(id)
	if !ok {
		return false
	}
	t.Interval = newInterval
	tw.placeLocked(t)
	return true
}

func (tw *TimingWheel) Len() int {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	return len(tw.index)
}

// Stop halts the ticker. Pending timers never fire.
func (tw *TimingWheel) Stop() {
	tw.stopOnce.Do(func() {
		if tw.ticker != nil {
			tw.ticker.Stop()
		}
		close(tw.done)
	})
}
