package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance or Set is called.
// Scheduled callbacks run synchronously on the goroutine that advances it.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	tasks  map[int]*task
}

type task struct {
	interval time.Duration
	next     time.Time
	fn       func()
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, tasks: make(map[int]*task)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.tasks[id] = &task{interval: interval, next: m.now.Add(interval), fn: fn}

	return func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()
	}
}

// Scheduled reports how many repeating tasks are still active.
func (m *Manual) Scheduled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Set jumps straight to t without firing any callbacks, like a process that
// was not running while time passed.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	for _, tk := range m.tasks {
		for !tk.next.After(t) {
			tk.next = tk.next.Add(tk.interval)
		}
	}
	m.mu.Unlock()
}

// Advance moves the clock forward by d, firing every due callback in time
// order. Callbacks may cancel themselves or schedule new tasks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		tk := m.nextDue(target)
		if tk == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = tk.next
		tk.next = tk.next.Add(tk.interval)
		fn := tk.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) nextDue(target time.Time) *task {
	ids := make([]int, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var best *task
	for _, id := range ids {
		tk := m.tasks[id]
		if tk.next.After(target) {
			continue
		}
		if best == nil || tk.next.Before(best.next) {
			best = tk
		}
	}
	return best
}
