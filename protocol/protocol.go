// Package protocol implements pulsecore's outbound wire framing: VLQ
// varint encoding, CRC16, and a sync-byte-terminated frame trailer,
// adapted from the teacher's MCU command-link codec.
package protocol

// Version represents the pulsecore firmware version
const Version = "0.0.1-alpha"

// MessageMax is the maximum outbound frame buffer size.
const MessageMax = 512
