package core

import (
	"testing"
)

// Mock GPIO driver recording pin state
type mockGPIO struct {
	levels  map[GPIOPin]bool
	outputs map[GPIOPin]bool
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		levels:  make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	return nil
}

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	m.levels[pin] = value
	return nil
}

func (m *mockGPIO) GetPin(pin GPIOPin) (bool, error) {
	return m.levels[pin], nil
}

func (m *mockGPIO) FastSetPin(pin GPIOPin, value bool) {
	m.levels[pin] = value
}

// Mock TMC SPI driver capturing frames; replies are injected by tests.
type mockTmcSpi struct {
	gpio        *mockGPIO
	csPins      []GPIOPin
	cfg         TmcSpiConfig
	irqEnabled  bool
	tx, rx      *[3]byte
	frames      []uint32 // register words sent, in order
	csViolation bool     // more or less than one CS asserted at frame start
}

func (m *mockTmcSpi) Configure(cfg TmcSpiConfig) error {
	m.cfg = cfg
	return nil
}

func (m *mockTmcSpi) StartFrame(tx, rx *[3]byte) {
	m.tx, m.rx = tx, rx
	m.frames = append(m.frames, uint32(tx[0])<<16|uint32(tx[1])<<8|uint32(tx[2]))

	low := 0
	for _, pin := range m.csPins {
		if !m.gpio.levels[pin] {
			low++
		}
	}
	if low != 1 {
		m.csViolation = true
	}
}

func (m *mockTmcSpi) EnableCompletionInterrupt()  { m.irqEnabled = true }
func (m *mockTmcSpi) DisableCompletionInterrupt() { m.irqEnabled = false }

// complete finishes the in-flight frame with a 20-bit status reply and
// runs the interrupt body, which starts the next frame in the ring.
func (m *mockTmcSpi) complete(status20 uint32) {
	v := status20 << 4 // status rides in the top 20 of the 24 received bits
	m.rx[0] = byte(v >> 16)
	m.rx[1] = byte(v >> 8)
	m.rx[2] = byte(v)
	TmcTransferComplete()
}

type busHarness struct {
	gpio      *mockGPIO
	spi       *mockTmcSpi
	csPins    []GPIOPin
	enablePin GPIOPin
}

func newBusHarness(t *testing.T, numDrivers int) *busHarness {
	t.Helper()

	h := &busHarness{
		gpio:      newMockGPIO(),
		enablePin: GPIOPin(2),
	}
	for i := 0; i < numDrivers; i++ {
		h.csPins = append(h.csPins, GPIOPin(10+i))
	}
	h.spi = &mockTmcSpi{gpio: h.gpio, csPins: h.csPins}

	SetGPIODriver(h.gpio)
	SetTmcSpiDriver(h.spi)

	// Idle axes unless a test installs its own interval source
	prev := GetStepInterval
	GetStepInterval = func(axis, shift uint32) uint32 { return 0 }
	t.Cleanup(func() { GetStepInterval = prev })

	if err := InitDrivers(h.csPins, h.enablePin); err != nil {
		t.Fatalf("InitDrivers failed: %v", err)
	}
	return h
}

// pump completes frames with the given status until count frames have
// been issued in total.
func (h *busHarness) pump(t *testing.T, status uint32, count int) {
	t.Helper()
	for len(h.spi.frames) < count {
		h.spi.complete(status)
	}
}

func regAddress(frame uint32) uint32 {
	if frame&0x80000 == 0 {
		return TMC_REG_DRVCTRL
	}
	return frame & 0xE0000
}

func checkInvariants(t *testing.T) {
	t.Helper()
	for i := 0; i < int(numTmcDrivers); i++ {
		d := &driverStates[i]
		toffCleared := d.registers[ChopperControl]&TMC_CHOPCONF_TOFF_MASK == 0
		if toffCleared != !d.enabled {
			t.Errorf("driver %d: TOFF cleared=%v but enabled=%v", i, toffCleared, d.enabled)
		}
		if d.microstepShiftFactor > 8 {
			t.Errorf("driver %d: microstep shift %d out of range", i, d.microstepShiftFactor)
		}
		if d.registersToUpdate&^uint32(updateAllRegisters) != 0 {
			t.Errorf("driver %d: dirty mask %x has bits outside the register set", i, d.registersToUpdate)
		}
	}
}

func TestInitPowerOnFullResync(t *testing.T) {
	h := newBusHarness(t, 4)

	if h.gpio.levels[h.enablePin] != true {
		t.Errorf("enable pin should be high (drivers disabled) after init")
	}
	if h.spi.cfg.Rate != DriversSpiClockFrequency {
		t.Errorf("expected SPI clock %d, got %d", DriversSpiClockFrequency, h.spi.cfg.Rate)
	}

	SpinDrivers(true)

	if h.gpio.levels[h.enablePin] != false {
		t.Errorf("enable pin should be asserted low after power up")
	}
	if !h.spi.irqEnabled {
		t.Errorf("completion interrupt should be armed")
	}

	// 4 drivers x 5 registers must go out before any keep-alive.
	h.pump(t, 0, 20)

	perDriver := make(map[int][]uint32)
	for i, frame := range h.spi.frames {
		perDriver[i%4] = append(perDriver[i%4], regAddress(frame))
	}
	want := []uint32{TMC_REG_DRVCTRL, TMC_REG_SGCSCONF, TMC_REG_CHOPCONF, TMC_REG_DRVCONF, TMC_REG_SMARTEN}
	for d := 0; d < 4; d++ {
		if len(perDriver[d]) != 5 {
			t.Fatalf("driver %d issued %d frames, want 5", d, len(perDriver[d]))
		}
		for i, addr := range perDriver[d] {
			if addr != want[i] {
				t.Errorf("driver %d frame %d: address %05x, want %05x", d, i, addr, want[i])
			}
		}
	}

	// With nothing dirty the ring degrades to SMARTEN keep-alives.
	h.pump(t, 0, 24)
	for _, frame := range h.spi.frames[20:] {
		if regAddress(frame) != TMC_REG_SMARTEN {
			t.Errorf("expected keep-alive frame, got %05x", frame)
		}
	}

	if h.spi.csViolation {
		t.Errorf("chip select invariant violated: not exactly one CS low at frame start")
	}
	checkInvariants(t)
}

func TestMicrostepRoundTrip(t *testing.T) {
	h := newBusHarness(t, 2)
	SpinDrivers(true)
	h.pump(t, 0, 10) // drain the initial resync

	if !SetMicrostepping(0, 16, true) {
		t.Fatalf("SetMicrostepping(16) rejected")
	}

	// The next frame for driver 0 must be DRVCTRL with MRES=4, INTPOL set
	before := len(h.spi.frames)
	h.pump(t, 0, before+2)
	var drvctrl uint32
	found := false
	for _, frame := range h.spi.frames[before:] {
		if regAddress(frame) == TMC_REG_DRVCTRL {
			drvctrl = frame
			found = true
		}
	}
	if !found {
		t.Fatalf("no DRVCTRL frame issued after SetMicrostepping")
	}
	if mres := drvctrl & TMC_DRVCTRL_MRES_MASK; mres != 4 {
		t.Errorf("MRES field = %d, want 4 for x16", mres)
	}
	if drvctrl&TMC_DRVCTRL_INTPOL == 0 {
		t.Errorf("INTPOL bit not set")
	}

	microsteps, interp := GetMicrostepping(0)
	if microsteps != 16 || !interp {
		t.Errorf("GetMicrostepping = %d/%v, want 16/true", microsteps, interp)
	}

	for _, valid := range []uint32{1, 2, 4, 8, 16, 32, 64, 128, 256} {
		if !SetMicrostepping(1, valid, false) {
			t.Errorf("SetMicrostepping(%d) rejected", valid)
			continue
		}
		if got, _ := GetMicrostepping(1); got != valid {
			t.Errorf("GetMicrostepping after set %d = %d", valid, got)
		}
	}

	for _, invalid := range []uint32{0, 3, 6, 12, 100, 512, 1024} {
		before, beforeInterp := GetMicrostepping(1)
		if SetMicrostepping(1, invalid, true) {
			t.Errorf("SetMicrostepping(%d) accepted", invalid)
		}
		after, afterInterp := GetMicrostepping(1)
		if after != before || afterInterp != beforeInterp {
			t.Errorf("rejected SetMicrostepping(%d) still changed state", invalid)
		}
	}
	checkInvariants(t)
}

func TestEnableDisableIdempotence(t *testing.T) {
	h := newBusHarness(t, 2)
	SpinDrivers(true)
	h.pump(t, 0, 10)

	d := &driverStates[1]
	if d.enabled {
		t.Fatalf("driver 1 should start disabled")
	}
	if d.registers[ChopperControl]&TMC_CHOPCONF_TOFF_MASK != 0 {
		t.Fatalf("disabled driver must have TOFF cleared in the shadow")
	}

	// Disabling a disabled driver queues nothing
	dirtyBefore := d.registersToUpdate
	EnableDrive(1, false)
	if d.registersToUpdate != dirtyBefore {
		t.Errorf("enable(false) on a disabled driver queued a frame")
	}

	EnableDrive(1, true)
	if d.registersToUpdate&(1<<ChopperControl) == 0 {
		t.Errorf("enable(true) must mark CHOPCONF dirty")
	}
	if d.registers[ChopperControl] != d.configuredChopConfReg {
		t.Errorf("enabled shadow should carry the configured chopper value")
	}
	if d.registers[ChopperControl]&TMC_CHOPCONF_TOFF_MASK == 0 {
		t.Errorf("enabled shadow must carry the user off-time")
	}

	// Drain, then re-enable: no further frame
	before := len(h.spi.frames)
	h.pump(t, 0, before+4)
	dirtyBefore = d.registersToUpdate
	EnableDrive(1, true)
	if d.registersToUpdate != dirtyBefore {
		t.Errorf("enable(true) on an enabled driver queued a frame")
	}
	checkInvariants(t)
}

func TestEnableClearsStall(t *testing.T) {
	h := newBusHarness(t, 1)
	SpinDrivers(true)
	h.pump(t, 0, 5)

	d := &driverStates[0]
	EnableDrive(0, true)
	d.lastReadStatus |= TMC_RR_SG
	d.accumulatedStatus |= TMC_RR_SG

	EnableDrive(0, false)
	EnableDrive(0, true)

	if GetLiveStatus(0)&TMC_RR_SG != 0 {
		t.Errorf("SG must read zero immediately after enable")
	}
	if GetAccumulatedStatus(0, ^uint32(0))&TMC_RR_SG != 0 {
		t.Errorf("accumulated SG must be cleared by enable")
	}
}

func TestStallSuppressionWindow(t *testing.T) {
	h := newBusHarness(t, 3)
	SpinDrivers(true)
	h.pump(t, 0, 15)
	EnableDrive(2, true)
	h.pump(t, 0, len(h.spi.frames)+3)

	SetStallMinimumStepsPerSecond(2, 100)
	maxInterval := uint32(StepClockRate / 100)

	stepInterval := uint32(0)
	GetStepInterval = func(axis, shift uint32) uint32 {
		if axis == 2 {
			return stepInterval
		}
		return 0
	}

	const stalled = TMC_RR_SG | (500 << TMC_RR_SG_LOAD_SHIFT)

	// Not stepping: SG suppressed, load window untouched
	stepInterval = 0
	h.pumpDriver(t, 2, stalled)
	if GetLiveStatus(2)&TMC_RR_SG != 0 {
		t.Errorf("SG must be suppressed while not stepping")
	}
	d := &driverStates[2]
	if d.minSgLoadRegister != 1023 || d.maxSgLoadRegister != 0 {
		t.Errorf("load window must not update outside the stall window")
	}

	// Too slow: interval above the ceiling
	stepInterval = maxInterval + 1
	h.pumpDriver(t, 2, stalled)
	if GetLiveStatus(2)&TMC_RR_SG != 0 {
		t.Errorf("SG must be suppressed above the interval ceiling")
	}
	if d.minSgLoadRegister != 1023 || d.maxSgLoadRegister != 0 {
		t.Errorf("load window must not update above the interval ceiling")
	}

	// At exactly the ceiling the reading is honoured
	stepInterval = maxInterval
	h.pumpDriver(t, 2, stalled)
	if GetLiveStatus(2)&TMC_RR_SG == 0 {
		t.Errorf("SG must be honoured at the interval ceiling")
	}
	if d.minSgLoadRegister != 500 || d.maxSgLoadRegister != 500 {
		t.Errorf("load window = %d/%d, want 500/500", d.minSgLoadRegister, d.maxSgLoadRegister)
	}
}

// pumpDriver completes frames with status 0 until the in-flight frame
// belongs to the given driver, then completes that one with status.
func (h *busHarness) pumpDriver(t *testing.T, driver int32, status uint32) {
	t.Helper()
	for i := 0; i < MaxSmartDrivers*2; i++ {
		if currentDriver == driver {
			h.spi.complete(status)
			return
		}
		h.spi.complete(0)
	}
	t.Fatalf("driver %d never came around in the ring", driver)
}

func TestCurrentClamp(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	SetMotorCurrent(0, 50.0) // clamps up to 100mA
	cs := driverStates[0].registers[StallGuardConfig] & TMC_SGCSCONF_CS_MASK
	if cs != (32*100-1600)/3236 {
		t.Errorf("CS for 50mA request = %d, want %d", cs, (32*100-1600)/3236)
	}

	SetMotorCurrent(0, 5000.0) // clamps down to the maximum
	cs = driverStates[0].registers[StallGuardConfig] & TMC_SGCSCONF_CS_MASK
	want := uint32((32*2400 - 1600) / 3236)
	if cs != want {
		t.Errorf("CS for 5A request = %d, want %d", cs, want)
	}

	if driverStates[0].registersToUpdate&(1<<StallGuardConfig) == 0 {
		t.Errorf("SetMotorCurrent must mark SGCSCONF dirty")
	}
}

func TestPowerCycleResync(t *testing.T) {
	h := newBusHarness(t, 4)
	SpinDrivers(true)
	h.pump(t, 0, 20)

	// One setter, one frame
	if !SetMicrostepping(0, 32, false) {
		t.Fatalf("SetMicrostepping rejected")
	}
	before := len(h.spi.frames)
	h.pump(t, 0, before+8)
	drvctrlCount := 0
	for _, frame := range h.spi.frames[before:] {
		if regAddress(frame) == TMC_REG_DRVCTRL {
			drvctrlCount++
		}
	}
	if drvctrlCount != 1 {
		t.Errorf("expected exactly one DRVCTRL frame, got %d", drvctrlCount)
	}

	// Power down: the ring must halt at the next completion
	SpinDrivers(false)
	if h.gpio.levels[h.enablePin] != true {
		t.Errorf("enable pin should be released on power down")
	}
	h.spi.complete(0)
	if currentDriver != -1 {
		t.Errorf("ring should be idle after power down, currentDriver=%d", currentDriver)
	}
	if h.spi.irqEnabled {
		t.Errorf("completion interrupt should be masked after the ring halts")
	}

	// Power back up: full resync, all five registers for all four
	// drivers before any keep-alive
	start := len(h.spi.frames)
	SpinDrivers(true)
	h.pump(t, 0, start+20)
	counts := make(map[uint32]int)
	for _, frame := range h.spi.frames[start : start+20] {
		counts[regAddress(frame)]++
	}
	for _, addr := range []uint32{TMC_REG_DRVCTRL, TMC_REG_SGCSCONF, TMC_REG_CHOPCONF, TMC_REG_DRVCONF, TMC_REG_SMARTEN} {
		if counts[addr] != 4 {
			t.Errorf("register %05x re-sent %d times after power cycle, want 4", addr, counts[addr])
		}
	}
}

func TestTurnDriversOffFromTick(t *testing.T) {
	h := newBusHarness(t, 2)
	SpinDrivers(true)
	h.pump(t, 0, 6)

	TurnDriversOff()
	if h.gpio.levels[h.enablePin] != true {
		t.Errorf("TurnDriversOff must release the enable pin")
	}
	h.spi.complete(0)
	if currentDriver != -1 {
		t.Errorf("ring should halt after TurnDriversOff")
	}
}

func TestAccumulatedStatusDrain(t *testing.T) {
	h := newBusHarness(t, 1)
	SpinDrivers(true)
	h.pump(t, 0, 5)

	h.pumpDriver(t, 0, TMC_RR_OT)
	h.pumpDriver(t, 0, TMC_RR_S2G)

	got := GetAccumulatedStatus(0, 0)
	if got&TMC_RR_OT == 0 || got&TMC_RR_S2G == 0 {
		t.Errorf("accumulator should carry OT and S2G, got %05x", got)
	}

	// Everything was consumed; only events since the drain may appear
	got = GetAccumulatedStatus(0, ^uint32(0))
	if got&(TMC_RR_OT|TMC_RR_S2G) != 0 {
		t.Errorf("drained bits reappeared: %05x", got)
	}

	// Keep OT across the drain, consume the rest
	h.pumpDriver(t, 0, TMC_RR_OT|TMC_RR_OTPW)
	GetAccumulatedStatus(0, TMC_RR_OT)
	got = GetAccumulatedStatus(0, 0)
	if got&TMC_RR_OT == 0 {
		t.Errorf("kept bit OT did not survive the drain")
	}
	if got&TMC_RR_OTPW != 0 {
		t.Errorf("consumed bit OTPW survived the drain")
	}
}

func TestChopperControlValidation(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	base := GetChopperControl(0)

	// TOFF = 0 would de-energise the motor through the config path
	if SetChopperControl(0, base&^uint32(TMC_CHOPCONF_TOFF_MASK)) {
		t.Errorf("chopper value with TOFF=0 accepted")
	}
	if GetChopperControl(0) != base {
		t.Errorf("rejected chopper value still changed state")
	}

	// TOFF = 1 with TBL = 0 would latch the chip up
	bad := (base &^ uint32(TMC_CHOPCONF_TOFF_MASK|TMC_CHOPCONF_TBL_MASK)) | 1
	if SetChopperControl(0, bad) {
		t.Errorf("chopper value with TOFF=1, TBL=0 accepted")
	}

	// TOFF = 1 with TBL != 0 is legal
	good := (base &^ uint32(TMC_CHOPCONF_TOFF_MASK)) | 1
	if !SetChopperControl(0, good) {
		t.Errorf("legal chopper value rejected")
	}
	if GetChopperControl(0) != good&TMC_DATA_MASK {
		t.Errorf("chopper round trip: got %05x, want %05x", GetChopperControl(0), good&TMC_DATA_MASK)
	}

	// Address bits in the input are stripped on read-back
	withAddr := good | TMC_REG_CHOPCONF
	if !SetChopperControl(0, withAddr) {
		t.Errorf("chopper value with address bits rejected")
	}
	if GetChopperControl(0) != withAddr&TMC_DATA_MASK {
		t.Errorf("address bits leaked into the chopper read-back")
	}
}

func TestOffTime(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	if SetOffTime(0, 0) {
		t.Errorf("off time 0 accepted")
	}
	if SetOffTime(0, 16) {
		t.Errorf("off time 16 accepted")
	}
	for n := uint32(1); n <= 15; n++ {
		if !SetOffTime(0, n) {
			t.Errorf("off time %d rejected (TBL is nonzero by default)", n)
			continue
		}
		if GetOffTime(0) != n {
			t.Errorf("off time round trip: got %d, want %d", GetOffTime(0), n)
		}
	}
}

func TestDriverModes(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	modes := []DriverMode{DriverModeSpreadCycle, DriverModeConstantOffTime, DriverModeRandomOffTime}
	for _, mode := range modes {
		if !SetDriverMode(0, mode) {
			t.Errorf("SetDriverMode(%v) rejected", mode)
			continue
		}
		if got := GetDriverMode(0); got != mode {
			t.Errorf("GetDriverMode = %v, want %v", got, mode)
		}
	}

	if SetDriverMode(0, DriverMode(99)) {
		t.Errorf("invalid driver mode accepted")
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	h := newBusHarness(t, 2)
	_ = h

	// Setters no-op, getters return safe defaults
	SetMotorCurrent(99, 1000)
	EnableDrive(99, true)
	SetStallThreshold(99, 10)
	SetCoolStep(99, 0x1234)
	if SetMicrostepping(99, 16, true) {
		t.Errorf("SetMicrostepping out of range returned true")
	}
	if SetChopperControl(99, 0x901B4) {
		t.Errorf("SetChopperControl out of range returned true")
	}
	if GetLiveStatus(99) != 0 {
		t.Errorf("GetLiveStatus out of range should be 0")
	}
	if GetAccumulatedStatus(99, ^uint32(0)) != 0 {
		t.Errorf("GetAccumulatedStatus out of range should be 0")
	}
	if m, _ := GetMicrostepping(99); m != 1 {
		t.Errorf("GetMicrostepping out of range should be 1")
	}
	if GetDriverMode(99) != DriverModeUnknown {
		t.Errorf("GetDriverMode out of range should be unknown")
	}
	if GetChopperControl(99) != 0 {
		t.Errorf("GetChopperControl out of range should be 0")
	}

	var reply Reply
	AppendDriverStatus(99, &reply)
	if reply.Len() != 0 {
		t.Errorf("AppendDriverStatus out of range wrote %q", reply.String())
	}
}

func TestStallThresholdClamp(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	cases := []struct {
		in      int
		encoded uint32
	}{
		{0, 0},
		{1, 1},
		{63, 63},
		{100, 63},  // clamps high
		{-1, 127},  // two's complement in 7 bits
		{-64, 64},
		{-100, 64}, // clamps low
	}
	for _, tc := range cases {
		SetStallThreshold(0, tc.in)
		got := (driverStates[0].registers[StallGuardConfig] & TMC_SGCSCONF_SGT_MASK) >> TMC_SGCSCONF_SGT_SHIFT
		if got != tc.encoded {
			t.Errorf("SGT for %d = %d, want %d", tc.in, got, tc.encoded)
		}
	}
}

func TestStallConfigReport(t *testing.T) {
	h := newBusHarness(t, 1)
	_ = h

	SetStallThreshold(0, -5)
	SetStallFilter(0, true)
	SetStallMinimumStepsPerSecond(0, 250)

	var reply Reply
	AppendStallConfig(0, &reply)
	s := reply.String()
	if !contains(s, "stall threshold -5") {
		t.Errorf("report missing threshold: %q", s)
	}
	if !contains(s, "filter on") {
		t.Errorf("report missing filter state: %q", s)
	}
	if !contains(s, "steps/sec 250") {
		t.Errorf("report missing step rate: %q", s)
	}
}

func TestDriverStatusReport(t *testing.T) {
	h := newBusHarness(t, 1)
	SpinDrivers(true)
	h.pump(t, 0, 5)
	EnableDrive(0, true)

	GetStepInterval = func(axis, shift uint32) uint32 { return 1000 }
	SetStallMinimumStepsPerSecond(0, 1) // huge window; readings always honoured

	h.pumpDriver(t, 0, TMC_RR_OTPW|(300<<TMC_RR_SG_LOAD_SHIFT))
	h.pumpDriver(t, 0, TMC_RR_OTPW|(700<<TMC_RR_SG_LOAD_SHIFT))

	var reply Reply
	AppendDriverStatus(0, &reply)
	s := reply.String()
	if !contains(s, "temperature-warning") {
		t.Errorf("report missing temperature warning: %q", s)
	}
	if !contains(s, "SG min/max 300/700") {
		t.Errorf("report missing load window: %q", s)
	}

	// The report resets the window
	reply.Clear()
	AppendDriverStatus(0, &reply)
	if !contains(reply.String(), "SG min/max not available") {
		t.Errorf("load window not reset after report: %q", reply.String())
	}
}

func TestOpenLoadMaskedAtStandstill(t *testing.T) {
	h := newBusHarness(t, 1)
	SpinDrivers(true)
	h.pump(t, 0, 5)

	h.pumpDriver(t, 0, TMC_RR_OLA|TMC_RR_OLB|TMC_RR_STST)

	var reply Reply
	AppendDriverStatus(0, &reply)
	s := reply.String()
	if contains(s, "open-load") {
		t.Errorf("open load reported at standstill: %q", s)
	}
	if !contains(s, "standstill") {
		t.Errorf("standstill not reported: %q", s)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
