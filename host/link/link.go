// Package link speaks the firmware's message block protocol over a
// serial port. Command IDs are derived by building the same command
// registry the firmware builds at boot, so the two ends agree without a
// dictionary download.
package link

import (
	"errors"
	"fmt"
	"time"

	"smartdrv/core"
	"smartdrv/host/serial"
	"smartdrv/protocol"
)

var registryReady bool

// commandRegistry builds the firmware's registry once and reuses it.
func commandRegistry() *core.CommandRegistry {
	if !registryReady {
		core.InitCoreCommands()
		core.InitTmcCommands()
		registryReady = true
	}
	return core.GetGlobalRegistry()
}

// Link is one connection to the firmware.
type Link struct {
	port serial.Port
	seq  uint8
	rx   []byte
}

// Dial opens the serial device and returns a ready link.
func Dial(device string) (*Link, error) {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return nil, err
	}
	return &Link{port: port, seq: protocol.MessageDest}, nil
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.port.Close()
}

// CommandID resolves a command name against the shared registry.
func (l *Link) CommandID(name string) (uint16, error) {
	cmd, ok := commandRegistry().GetCommandByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown command %q", name)
	}
	return cmd.ID, nil
}

// Send frames and writes one command with unsigned arguments.
func (l *Link) Send(name string, args ...uint32) error {
	return l.SendRaw(name, func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(output, a)
		}
	})
}

// SendRaw frames and writes one command with caller-encoded arguments.
func (l *Link) SendRaw(name string, encode func(output protocol.OutputBuffer)) error {
	id, err := l.CommandID(name)
	if err != nil {
		return err
	}

	payload := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(payload, uint32(id))
	if encode != nil {
		encode(payload)
	}
	body := payload.Result()

	msgLen := protocol.MessageHeaderSize + len(body) + protocol.MessageTrailerSize
	frame := make([]byte, 0, msgLen)
	frame = append(frame, uint8(msgLen), l.seq)
	frame = append(frame, body...)
	crc := protocol.CRC16(frame)
	frame = append(frame, uint8(crc>>8), uint8(crc&0xFF), protocol.MessageValueSync)

	l.seq = ((l.seq + 1) & protocol.MessageSeqMask) | protocol.MessageDest

	_, err = l.port.Write(frame)
	return err
}

// WaitResponse reads frames until one carrying the named response
// arrives, returning its payload (arguments after the command ID). ACK
// blocks and unrelated responses are skipped.
func (l *Link) WaitResponse(name string, timeout time.Duration) ([]byte, error) {
	wantID, err := l.CommandID(name)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		n, _ := l.port.Read(buf)
		if n > 0 {
			l.rx = append(l.rx, buf[:n]...)
		}

		for {
			payload, ok := l.nextFrame()
			if !ok {
				break
			}
			if len(payload) == 0 {
				continue // ACK
			}
			data := payload
			id, err := protocol.DecodeVLQUint(&data)
			if err != nil {
				continue
			}
			if uint16(id) == wantID {
				return data, nil
			}
		}
	}
	return nil, errors.New("timed out waiting for " + name)
}

// nextFrame pops one complete, CRC-valid frame from the receive buffer
// and returns its payload. Garbage is skipped byte by byte.
func (l *Link) nextFrame() ([]byte, bool) {
	for len(l.rx) >= protocol.MessageLengthMin {
		msgLen := int(l.rx[0])
		if msgLen < protocol.MessageLengthMin || msgLen > protocol.MessageLengthMax {
			l.rx = l.rx[1:]
			continue
		}
		if len(l.rx) < msgLen {
			return nil, false
		}
		if l.rx[msgLen-1] != protocol.MessageValueSync {
			l.rx = l.rx[1:]
			continue
		}
		crc := uint16(l.rx[msgLen-3])<<8 | uint16(l.rx[msgLen-2])
		if crc != protocol.CRC16(l.rx[:msgLen-protocol.MessageTrailerSize]) {
			l.rx = l.rx[1:]
			continue
		}
		payload := append([]byte(nil), l.rx[protocol.MessageHeaderSize:msgLen-protocol.MessageTrailerSize]...)
		l.rx = l.rx[msgLen:]
		return payload, true
	}
	return nil, false
}
