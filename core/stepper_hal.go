package core

// StepperBackend is the hardware abstraction for step pulse generation.
// Implementations can use GPIO toggling or a PIO state machine.
type StepperBackend interface {
	// Init initializes the stepper hardware
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// Step generates a single step pulse. Called from the step timer
	// interrupt; must be fast and must handle pulse width internally.
	Step()

	// SetDirection sets the direction output. Must ensure proper
	// dir-to-step setup time.
	SetDirection(dir bool)

	// Stop immediately halts stepping
	Stop()

	// GetName returns the backend implementation name
	GetName() string
}

// StepperBackendInfo describes a backend's capabilities.
type StepperBackendInfo struct {
	Name          string
	MaxStepRate   uint32 // maximum steps/second per axis
	MinPulseNs    uint32 // minimum step pulse width (ns)
	TypicalJitter uint32 // typical timing jitter (ns)
	CPUOverhead   uint8  // CPU overhead percentage
}
