package core

import (
	"smartdrv/protocol"
)

var globalTransport *protocol.Transport

// SetGlobalTransport sets the transport used for response messages.
func SetGlobalTransport(transport *protocol.Transport) {
	globalTransport = transport
}

// SendResponse encodes and sends a registered response message. The args
// callback writes the response payload after the command ID.
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		// All responses are registered at boot; a miss is a wiring bug.
		panic("response not registered: " + responseName)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

// InitCoreCommands registers the commands every build carries.
func InitCoreCommands() {
	RegisterCommand("get_uptime", "", handleGetUptime)
	RegisterResponse("uptime", "clock=%u")

	// Kills the driver bus from the host side; same path the tick
	// interrupt uses on power loss.
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
}

func handleGetUptime(data *[]byte) error {
	now := GetTime()
	SendResponse("uptime", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, now)
	})
	return nil
}

func handleEmergencyStop(data *[]byte) error {
	TurnDriversOff()
	return nil
}
