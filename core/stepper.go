package core

// Stepper axis control. The motion host queues (interval, count, add)
// segments; the step timer walks them. The driver bus consumes the live
// interval through GetStepInterval to decide whether stall readings are
// trustworthy.

import (
	"errors"
)

const (
	// StepperQueueSize is the ring capacity for pending move segments.
	StepperQueueSize = 16

	// MaxSteppers bounds the axis registry.
	MaxSteppers = 16
)

// StepperMove is one queued move segment.
type StepperMove struct {
	Interval  uint32 // microstep interval in step clock ticks
	Count     uint16 // number of steps in this segment
	Add       int16  // added to the interval each step (acceleration)
	Direction uint8  // 0=forward, 1=reverse
}

// Stepper is a single motor axis.
type Stepper struct {
	Axis            uint8  // axis number; the driver bus indexes by this
	StepPin         uint8  // step pulse output pin
	DirPin          uint8  // direction output pin
	InvertStep      bool   // invert step signal polarity
	InvertDir       bool   // invert direction signal polarity
	MinStopInterval uint32 // minimum interval between steps

	Position int64 // current position in steps (signed)
	NextDir  uint8 // direction for the next queued move

	Queue     [StepperQueueSize]StepperMove
	QueueHead uint8
	QueueTail uint8

	StepTimer Timer

	// Live segment state. CurrentInterval is read by the driver bus
	// interrupt; single 32-bit word, written by the step timer and by
	// QueueMove (starting an idle axis) and Stop.
	CurrentInterval uint32
	CurrentCount    uint16
	CurrentAdd      int16

	Backend StepperBackend
}

var (
	steppers     [MaxSteppers]*Stepper
	stepperCount uint8

	// Backend factory, set by platform-specific code
	stepperBackendFactory func() StepperBackend
)

// GetStepper returns the stepper for an axis, or nil.
func GetStepper(axis uint8) *Stepper {
	if axis >= stepperCount {
		return nil
	}
	return steppers[axis]
}

// NewStepper creates and registers a stepper for an axis.
func NewStepper(axis uint8, stepPin, dirPin uint8, invertStep bool, minStopInterval uint32) (*Stepper, error) {
	if axis >= MaxSteppers {
		return nil, errors.New("stepper axis exceeds maximum")
	}

	s := &Stepper{
		Axis:            axis,
		StepPin:         stepPin,
		DirPin:          dirPin,
		InvertStep:      invertStep,
		MinStopInterval: minStopInterval,
	}
	s.StepTimer.Handler = s.stepEventHandler

	if stepperBackendFactory != nil {
		if backend := stepperBackendFactory(); backend != nil {
			if err := s.InitBackend(backend); err != nil {
				return nil, err
			}
		}
	}

	steppers[axis] = s
	if axis >= stepperCount {
		stepperCount = axis + 1
	}

	return s, nil
}

// SetStepperBackendFactory installs the factory used for new steppers.
// Called by platform initialization before any NewStepper.
func SetStepperBackendFactory(factory func() StepperBackend) {
	stepperBackendFactory = factory
}

// InitBackend attaches and initializes the hardware backend.
func (s *Stepper) InitBackend(backend StepperBackend) error {
	s.Backend = backend
	return backend.Init(s.StepPin, s.DirPin, s.InvertStep, s.InvertDir)
}

// QueueMove adds a move segment to the queue and starts stepping if the
// axis was idle.
func (s *Stepper) QueueMove(interval uint32, count uint16, add int16) error {
	nextTail := (s.QueueTail + 1) % StepperQueueSize
	if nextTail == s.QueueHead {
		return errors.New("stepper queue overflow")
	}

	if interval < s.MinStopInterval {
		interval = s.MinStopInterval
	}

	s.Queue[s.QueueTail] = StepperMove{
		Interval:  interval,
		Count:     count,
		Add:       add,
		Direction: s.NextDir,
	}
	s.QueueTail = nextTail

	if s.CurrentCount == 0 {
		s.loadNextMove()
	}

	return nil
}

func (s *Stepper) loadNextMove() {
	if s.QueueHead == s.QueueTail {
		s.CurrentCount = 0
		s.CurrentInterval = 0 // idle; stall detection ignores this axis
		return
	}

	move := &s.Queue[s.QueueHead]
	s.CurrentInterval = move.Interval
	s.CurrentCount = move.Count
	s.CurrentAdd = move.Add

	s.Backend.SetDirection(move.Direction != 0)

	s.QueueHead = (s.QueueHead + 1) % StepperQueueSize

	s.StepTimer.WakeTime = GetTime() + s.CurrentInterval
	ScheduleTimer(&s.StepTimer)
}

// stepEventHandler fires once per step.
func (s *Stepper) stepEventHandler(t *Timer) uint8 {
	if s.CurrentCount == 0 {
		// Stopped while this event was pending
		return SF_DONE
	}
	s.Backend.Step()

	if s.Queue[(s.QueueHead+StepperQueueSize-1)%StepperQueueSize].Direction == 0 {
		s.Position++
	} else {
		s.Position--
	}

	s.CurrentCount--

	if s.CurrentAdd != 0 {
		s.CurrentInterval += uint32(s.CurrentAdd)
		if s.CurrentInterval < s.MinStopInterval {
			s.CurrentInterval = s.MinStopInterval
		}
	}

	if s.CurrentCount == 0 {
		s.loadNextMove()
		if s.CurrentCount == 0 {
			return SF_DONE
		}
	}

	t.WakeTime += s.CurrentInterval
	return SF_RESCHEDULE
}

// SetNextDir sets the direction for subsequently queued moves.
func (s *Stepper) SetNextDir(dir uint8) {
	s.NextDir = dir
}

// GetPosition returns the current position. Position advances on every
// step, so it already includes the steps taken in the in-flight move.
func (s *Stepper) GetPosition() int64 {
	return s.Position
}

// IsActive returns true while moves are queued or executing.
func (s *Stepper) IsActive() bool {
	return s.CurrentCount > 0 || s.QueueHead != s.QueueTail
}

// Stop halts the stepper and clears its queue.
func (s *Stepper) Stop() {
	s.CurrentCount = 0
	s.CurrentInterval = 0
	s.QueueHead = 0
	s.QueueTail = 0
	if s.Backend != nil {
		s.Backend.Stop()
	}
}

// GetStepInterval reports the current full-step interval for an axis in
// step clock ticks, or 0 when the axis is not stepping. The driver bus
// interrupt calls this on every frame, so the default implementation
// reads only single words and takes no locks. Declared as a variable so
// tests (or an alternative motion host) can substitute their own source.
var GetStepInterval = stepperStepInterval

func stepperStepInterval(axis uint32, microstepShift uint32) uint32 {
	if axis >= uint32(stepperCount) {
		return 0
	}
	s := steppers[axis]
	if s == nil {
		return 0
	}
	interval := s.CurrentInterval
	if interval == 0 || s.CurrentCount == 0 {
		return 0
	}
	// CurrentInterval is per microstep; the stall window is defined on
	// full steps.
	if interval > (^uint32(0))>>microstepShift {
		return ^uint32(0)
	}
	return interval << microstepShift
}
