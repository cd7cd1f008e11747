package protocol

import "sync/atomic"

const (
	// MessageTrailerSize is the CRC16 plus the trailing sync byte.
	MessageTrailerSize = 3
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// Transport frames outbound pulsecore notifications the way the teacher's
// MCU command link frames its own wire traffic: a 2-byte header (length
// placeholder + sequence), the VLQ command payload, and a CRC16 + sync-byte
// trailer. gcodeio only ever drives this one direction — pin-change
// notifications and M-code acks are pushed to a mirror sink, never read
// back — so the host-resync/ACK-NAK/reset state machine the teacher's
// bidirectional MCU-host link needs has no caller here and is not carried.
type Transport struct {
	// nextSequence is the sequence byte written into every outbound
	// frame's header. Constant for this transport's lifetime: with no
	// inbound link, there is no host handshake to advance it.
	nextSequence uint32 // atomic uint8 stored as uint32
	output       OutputBuffer
}

// NewTransport creates a Transport that frames outbound commands onto output.
func NewTransport(output OutputBuffer) *Transport {
	return &Transport{
		nextSequence: MessageDest,
		output:       output,
	}
}

// EncodeFrame encodes and sends a frame with the given data.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	// Write header (length placeholder and sequence).
	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	// Write frame contents.
	frameData(t.output)

	// Update length field.
	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	// Calculate and write CRC.
	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// SendCommand sends a command with arguments.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}
