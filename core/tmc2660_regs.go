package core

// TMC2660 register definitions
// Based on the TMC2660 datasheet, Trinamic Motion Control GmbH & Co. KG
//
// Every SPI datagram is 20 bits: the register address lives in the top
// bits, the payload in the low 17. The same transfer clocks the status
// word back out, so writes double as status polls.

// Register addresses, pre-shifted into the top bits of the 20-bit word
const (
	TMC_REG_DRVCTRL  = 0x00000 // step/dir interface, microstep resolution
	TMC_REG_CHOPCONF = 0x80000 // chopper configuration
	TMC_REG_SMARTEN  = 0xA0000 // coolStep control
	TMC_REG_SGCSCONF = 0xC0000 // stallGuard threshold and current scale
	TMC_REG_DRVCONF  = 0xE0000 // driver configuration
	TMC_DATA_MASK    = 0x0001FFFF
)

// DRVCONF register bits
const (
	TMC_DRVCONF_RDSEL_0   = 0 << 4
	TMC_DRVCONF_RDSEL_1   = 1 << 4
	TMC_DRVCONF_RDSEL_2   = 2 << 4
	TMC_DRVCONF_RDSEL_3   = 3 << 4
	TMC_DRVCONF_VSENSE    = 1 << 6
	TMC_DRVCONF_SDOFF     = 1 << 7
	TMC_DRVCONF_TS2G_3P2  = 0 << 8
	TMC_DRVCONF_TS2G_1P6  = 1 << 8
	TMC_DRVCONF_TS2G_1P2  = 2 << 8
	TMC_DRVCONF_TS2G_0P8  = 3 << 8
	TMC_DRVCONF_DISS2G    = 1 << 10
	TMC_DRVCONF_SLPL_MIN  = 0 << 12
	TMC_DRVCONF_SLPL_MED  = 2 << 12
	TMC_DRVCONF_SLPL_MAX  = 3 << 12
	TMC_DRVCONF_SLPH_MIN  = 0 << 14
	TMC_DRVCONF_SLPH_MED  = 2 << 14
	TMC_DRVCONF_SLPH_MAX  = 3 << 14
	TMC_DRVCONF_TST       = 1 << 16
)

// CHOPCONF register bits
const (
	TMC_CHOPCONF_TOFF_MASK  = 15
	TMC_CHOPCONF_TOFF_SHIFT = 0
	TMC_CHOPCONF_RNDTF      = 1 << 13
	TMC_CHOPCONF_CHM        = 1 << 14
	TMC_CHOPCONF_TBL_MASK   = 3 << 15
	TMC_CHOPCONF_TBL_SHIFT  = 15
)

// DRVCTRL register bits, step/dir mode (SDOFF = 0)
const (
	TMC_DRVCTRL_MRES_MASK  = 0x0F
	TMC_DRVCTRL_MRES_SHIFT = 0
	TMC_DRVCTRL_MRES_16    = 0x04
	TMC_DRVCTRL_MRES_256   = 0x00
	TMC_DRVCTRL_DEDGE      = 1 << 8
	TMC_DRVCTRL_INTPOL     = 1 << 9
)

// SGCSCONF register bits
const (
	TMC_SGCSCONF_CS_MASK   = 31
	TMC_SGCSCONF_SGT_MASK  = 127 << 8
	TMC_SGCSCONF_SGT_SHIFT = 8
	TMC_SGCSCONF_SFILT     = 1 << 16
)

func tmcSgcsConfCS(n uint32) uint32 { return (n & 31) << 0 }

// SMARTEN register bits
const (
	TMC_SMARTEN_SEMIN_MASK  = 15
	TMC_SMARTEN_SEMIN_SHIFT = 0
	TMC_SMARTEN_SEUP_1      = 0 << 5
	TMC_SMARTEN_SEUP_8      = 3 << 5
	TMC_SMARTEN_SEMAX_MASK  = 15
	TMC_SMARTEN_SEMAX_SHIFT = 8
	TMC_SMARTEN_SEDN_32     = 0 << 13
	TMC_SMARTEN_SEDN_1      = 3 << 13
	TMC_SMARTEN_SEIMIN_HALF = 0 << 15
	TMC_SMARTEN_SEIMIN_QTR  = 1 << 15
)

// Status word bits as read back with RDSEL = 1 (stallGuard level + flags)
const (
	TMC_RR_SG            = 1 << 0 // stall detected
	TMC_RR_OT            = 1 << 1 // over temperature shutdown
	TMC_RR_OTPW          = 1 << 2 // over temperature warning
	TMC_RR_S2G           = 3 << 3 // short to ground (either phase)
	TMC_RR_OLA           = 1 << 5 // open load phase A
	TMC_RR_OLB           = 1 << 6 // open load phase B
	TMC_RR_STST          = 1 << 7 // standstill
	TMC_RR_SG_LOAD_SHIFT = 10     // 10-bit stallGuard load register
)

// DriverMode selects the chopper commutation strategy.
type DriverMode uint8

const (
	DriverModeConstantOffTime DriverMode = iota
	DriverModeRandomOffTime
	DriverModeSpreadCycle
	DriverModeUnknown
)

// String names the mode for status reports.
func (m DriverMode) String() string {
	switch m {
	case DriverModeConstantOffTime:
		return "constant off time"
	case DriverModeRandomOffTime:
		return "random off time"
	case DriverModeSpreadCycle:
		return "spread cycle"
	default:
		return "unknown"
	}
}

// Driver limits and defaults
const (
	// MaximumMotorCurrent is the clamp for SetMotorCurrent, in mA. With a
	// 0.051 ohm sense resistor and VSENSE=1 the usable range is roughly
	// 100 mA to 3.2 A; 2.4 A keeps headroom on the sense resistor rating.
	MaximumMotorCurrent = 2400.0

	DefaultMicrosteppingShift    = 4 // x16
	DefaultInterpolation         = true
	DefaultStallDetectThreshold  = 1 // zero is too sensitive in practice
	DefaultStallDetectFiltered   = false
	DefaultMinimumStepsPerSecond = 200 // 1 rev/s at 1.8 deg/step, per datasheet

	// MaxSmartDrivers bounds the driver state array.
	MaxSmartDrivers = 10
)

// The SPI clock speed is a compromise: too high and polling the driver
// chips eats CPU, too low and stalls are detected late. 2MHz polls ten
// drivers in about 170us.
const DriversSpiClockFrequency = 2000000

// Chopper control register default: spread cycle, TBL=2 (36 clocks),
// HSTRT=4, HEND=0, TOFF=4 (9.2us).
const defaultChopConfReg = TMC_REG_CHOPCONF |
	(2 << 15) | // TBL
	(0 << 11) | // HDEC
	(3 << 7) | // HEND
	(3 << 4) | // HSTRT
	(4 << 0) // TOFF

// StallGuard configuration default
const defaultSgcsConfReg = TMC_REG_SGCSCONF |
	(DefaultStallDetectThreshold << TMC_SGCSCONF_SGT_SHIFT)

// Driver configuration default: status reads return the stallGuard level
// (RDSEL=1), high sensitivity sense range, fast short-to-ground detection.
const defaultDrvConfReg = TMC_REG_DRVCONF |
	TMC_DRVCONF_RDSEL_1 |
	TMC_DRVCONF_VSENSE |
	TMC_DRVCONF_TS2G_0P8

// Drive control default: x16 microstepping with interpolation
const defaultDrvCtrlReg = TMC_REG_DRVCTRL |
	TMC_DRVCTRL_MRES_16 |
	TMC_DRVCTRL_INTPOL

// coolStep disabled by default; it needs tuning to the motor to behave.
const defaultSmartEnReg = TMC_REG_SMARTEN
