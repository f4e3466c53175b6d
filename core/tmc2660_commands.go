package core

// Host-visible commands for the driver bus. Every facade setter, the
// status reads and the driver and stall reports are reachable over the
// link so the host can configure drivers and collect telemetry without
// firmware rebuilds. The configuration getters (microstepping, driver
// mode, chopper control, off time) have no command.

import (
	"errors"
	"smartdrv/protocol"
)

var (
	errBadDriverValue = errors.New("invalid driver configuration value")

	// CS pins collected by config_tmc2660 until finalize runs
	pendingCsPins [MaxSmartDrivers]GPIOPin
	pendingCount  int
)

// InitTmcCommands registers the driver bus commands and responses.
func InitTmcCommands() {
	RegisterCommand("config_tmc2660", "oid=%c cs_pin=%u", handleConfigTmc2660)
	RegisterCommand("finalize_tmc2660", "enable_pin=%u", handleFinalizeTmc2660)

	RegisterCommand("tmc_set_current", "oid=%c ma=%u", handleTmcSetCurrent)
	RegisterCommand("tmc_enable", "oid=%c enable=%c", handleTmcEnable)
	RegisterCommand("tmc_set_microsteps", "oid=%c msteps=%u intpol=%c", handleTmcSetMicrosteps)
	RegisterCommand("tmc_set_chopconf", "oid=%c value=%u", handleTmcSetChopConf)
	RegisterCommand("tmc_set_off_time", "oid=%c value=%c", handleTmcSetOffTime)
	RegisterCommand("tmc_set_driver_mode", "oid=%c mode=%c", handleTmcSetDriverMode)
	RegisterCommand("tmc_set_sg_threshold", "oid=%c sgt=%i", handleTmcSetSgThreshold)
	RegisterCommand("tmc_set_sg_filter", "oid=%c filter=%c", handleTmcSetSgFilter)
	RegisterCommand("tmc_set_sg_min_speed", "oid=%c steps_per_second=%u", handleTmcSetSgMinSpeed)
	RegisterCommand("tmc_set_cool_step", "oid=%c config=%u", handleTmcSetCoolStep)
	RegisterCommand("tmc_set_axis", "oid=%c axis=%u", handleTmcSetAxis)

	RegisterCommand("set_motor_power", "powered=%c", handleSetMotorPower)

	RegisterCommand("query_tmc_status", "oid=%c keep=%u", handleQueryTmcStatus)
	RegisterResponse("tmc_status", "oid=%c live=%u accumulated=%u")

	RegisterCommand("tmc_driver_report", "oid=%c", handleTmcDriverReport)
	RegisterResponse("tmc_driver_report_response", "oid=%c msg=%*s")

	RegisterCommand("tmc_stall_report", "oid=%c", handleTmcStallReport)
	RegisterResponse("tmc_stall_report_response", "oid=%c msg=%*s")
}

func decodeOid(data *[]byte) (int, error) {
	oid, err := protocol.DecodeVLQUint(data)
	return int(oid), err
}

func handleConfigTmc2660(data *[]byte) error {
	_, err := decodeOid(data)
	if err != nil {
		return err
	}
	pin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if pendingCount < MaxSmartDrivers {
		pendingCsPins[pendingCount] = GPIOPin(pin)
		pendingCount++
	}
	return nil
}

func handleFinalizeTmc2660(data *[]byte) error {
	enablePin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count := pendingCount
	pendingCount = 0
	return InitDrivers(pendingCsPins[:count], GPIOPin(enablePin))
}

func handleTmcSetCurrent(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	ma, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetMotorCurrent(oid, float32(ma))
	return nil
}

func handleTmcEnable(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	en, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	EnableDrive(oid, en != 0)
	return nil
}

func handleTmcSetMicrosteps(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	msteps, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	intpol, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if oid < int(numTmcDrivers) && !SetMicrostepping(oid, msteps, intpol != 0) {
		return errBadDriverValue
	}
	return nil
}

func handleTmcSetChopConf(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if oid < int(numTmcDrivers) && !SetChopperControl(oid, value) {
		return errBadDriverValue
	}
	return nil
}

func handleTmcSetOffTime(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if oid < int(numTmcDrivers) && !SetOffTime(oid, value) {
		return errBadDriverValue
	}
	return nil
}

func handleTmcSetDriverMode(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	mode, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	// Reject out-of-range wire values here rather than relying on the
	// mode switch's default case.
	if mode > uint32(DriverModeSpreadCycle) {
		return errBadDriverValue
	}
	if oid < int(numTmcDrivers) && !SetDriverMode(oid, DriverMode(mode)) {
		return errBadDriverValue
	}
	return nil
}

func handleTmcSetSgThreshold(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	sgt, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	SetStallThreshold(oid, int(sgt))
	return nil
}

func handleTmcSetSgFilter(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	filter, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetStallFilter(oid, filter != 0)
	return nil
}

func handleTmcSetSgMinSpeed(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	sps, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetStallMinimumStepsPerSecond(oid, sps)
	return nil
}

func handleTmcSetCoolStep(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	config, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetCoolStep(oid, uint16(config))
	return nil
}

func handleTmcSetAxis(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	axis, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetDriverAxisNumber(oid, axis)
	return nil
}

func handleSetMotorPower(data *[]byte) error {
	powered, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SpinDrivers(powered != 0)
	return nil
}

func handleQueryTmcStatus(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}
	keep, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	live := GetLiveStatus(oid)
	accumulated := GetAccumulatedStatus(oid, keep)
	SendResponse("tmc_status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, live)
		protocol.EncodeVLQUint(output, accumulated)
	})
	return nil
}

func handleTmcDriverReport(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}

	var reply Reply
	reply.Cat("driver ")
	reply.CatInt(oid)
	reply.Cat(":")
	AppendDriverStatus(oid, &reply)
	sendReportResponse("tmc_driver_report_response", oid, &reply)
	return nil
}

func handleTmcStallReport(data *[]byte) error {
	oid, err := decodeOid(data)
	if err != nil {
		return err
	}

	var reply Reply
	AppendStallConfig(oid, &reply)
	sendReportResponse("tmc_stall_report_response", oid, &reply)
	return nil
}

func sendReportResponse(name string, oid int, reply *Reply) {
	SendResponse(name, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		output.Output([]byte(reply.String()))
	})
}
