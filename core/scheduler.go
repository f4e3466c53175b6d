package core

// Step event timers. Each stepper owns one Timer; the queue orders them
// by wake time on the step clock and the dispatcher runs whatever has
// come due. The driver bus itself is not timer-driven (it re-arms from
// the SPI completion interrupt); only step generation lives here.

// Timer is a scheduled event on the step clock.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerQueue  *Timer
	currentTime uint32
)

// ScheduleTimer queues a timer, ordered by wake time.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	enqueueTimer(t)
	restoreInterrupts(state)
}

// enqueueTimer splices a timer into the queue. Walking a pointer to the
// link lets head and interior insertions share one path; ties go after
// existing entries so equal-deadline steppers fire in queue order.
func enqueueTimer(t *Timer) {
	link := &timerQueue
	for *link != nil && (*link).WakeTime <= t.WakeTime {
		link = &(*link).Next
	}
	t.Next = *link
	*link = t
}

// TimerDispatch pops and runs every timer due at the current time. A
// handler returning SF_RESCHEDULE re-enters the queue at the wake time
// it set; SF_DONE drops the timer until something schedules it again.
func TimerDispatch() {
	state := disableInterrupts()
	for timerQueue != nil && timerQueue.WakeTime <= currentTime {
		t := timerQueue
		timerQueue = t.Next
		t.Next = nil

		if t.Handler(t) == SF_RESCHEDULE {
			enqueueTimer(t)
		}
	}
	restoreInterrupts(state)
}
