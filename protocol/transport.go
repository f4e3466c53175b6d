package protocol

import "sync/atomic"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// CommandHandler handles one decoded command; the handler consumes its own
// arguments from the data slice.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport runs the message block layer: sequence tracking, CRC checking,
// resynchronisation on garbage, and ACK generation. One instance serves
// the board's host link.
type Transport struct {
	isSynchronized uint32 // atomic bool
	nextSequence   uint32 // atomic; expected sequence from host (0x10-0x1F)
	output         OutputBuffer
	handler        CommandHandler
	resetCallback  func() // called when a host reset is detected
	flushCallback  func() // called to push an ACK out immediately
}

// NewTransport creates a transport writing responses to output and
// dispatching decoded commands to handler.
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		isSynchronized: 1,
		nextSequence:   MessageDest,
		output:         output,
		handler:        handler,
	}
}

// Receive consumes as many complete message blocks from input as are
// available. Incomplete trailing data is left in the buffer.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			// Hunt for a sync byte, discarding garbage before it
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			t.setSynchronized(true)
			t.encodeAckNak()
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			t.setSynchronized(false)
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^uint8(MessageSeqMask) != MessageDest {
			t.setSynchronized(false)
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			t.setSynchronized(false)
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			t.setSynchronized(false)
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		// Sequence wrapping back to MessageDest means the host restarted
		expectedSeq := uint8(atomic.LoadUint32(&t.nextSequence))
		if seq == MessageDest && expectedSeq != MessageDest {
			atomic.StoreUint32(&t.nextSequence, MessageDest)
			expectedSeq = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expectedSeq {
			nextSeq := ((seq + 1) & MessageSeqMask) | MessageDest
			atomic.StoreUint32(&t.nextSequence, uint32(nextSeq))
			_ = t.parseFrame(frame)
		}
		// ACK regardless; a mismatched sequence makes this a NAK carrying
		// the sequence we expect.
		t.encodeAckNak()
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches each command packed in the frame.
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynchronized(false)
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler != nil {
			if err := t.handler(uint16(cmdID), &frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeAckNak emits an ACK block. The host's serial queue expects the ACK
// before any response data, hence the immediate flush.
func (t *Transport) encodeAckNak() {
	ns := uint8(atomic.LoadUint32(&t.nextSequence))
	crc := CRC16([]byte{5, ns})

	t.output.Output([]byte{
		5,
		ns,
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes a complete message block around the given payload.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	// Responses carry the same 0x1x sequence as the ACK stream.
	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// SendCommand encodes a command ID plus arguments as one frame.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its initial synchronized state.
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.isSynchronized, 1)
	atomic.StoreUint32(&t.nextSequence, MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback installs a callback run when a host reset is detected.
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback installs a callback that pushes ACK bytes to the wire
// immediately.
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *Transport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
