// Package protocol defines the binary frames exchanged between the bridge
// server and the browser client.
//
// Every frame is a single WebSocket binary message:
//
//	[1 byte type][payload]
//
// Strings and byte blobs are length-prefixed with unsigned varints; the
// NavGo delta uses a zigzag varint. State values travel as opaque
// JSON-encoded blobs; the server never interprets them.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameType identifies a bridge frame.
type FrameType uint8

// Frame types. Server → client: NavPush, NavReplace, NavGo, Ping.
// Client → server: PopState, Pong.
const (
	FrameNavPush    FrameType = 0x01 // push a new history entry
	FrameNavReplace FrameType = 0x02 // replace the current entry
	FrameNavGo      FrameType = 0x03 // traverse history by a delta
	FramePopState   FrameType = 0x04 // browser observed a location change
	FramePing       FrameType = 0x05
	FramePong       FrameType = 0x06
)

// String returns the frame type's name.
func (ft FrameType) String() string {
	switch ft {
	case FrameNavPush:
		return "NavPush"
	case FrameNavReplace:
		return "NavReplace"
	case FrameNavGo:
		return "NavGo"
	case FramePopState:
		return "PopState"
	case FramePing:
		return "Ping"
	case FramePong:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(ft))
	}
}

// Wire limits. Frames violating them are rejected before any allocation
// proportional to the declared length.
const (
	MaxURLLen    = 2048
	MaxStateLen  = 64 * 1024
	MaxFrameSize = 128 * 1024
)

// Decoding errors.
var (
	ErrFrameTooShort    = errors.New("protocol: frame too short")
	ErrFrameTooLarge    = errors.New("protocol: frame exceeds size limit")
	ErrUnknownFrameType = errors.New("protocol: unknown frame type")
	ErrURLTooLong       = errors.New("protocol: url exceeds length limit")
	ErrStateTooLong     = errors.New("protocol: state blob exceeds length limit")
	ErrTruncatedFrame   = errors.New("protocol: truncated frame")
)

// Frame is a decoded bridge message. Which fields are meaningful depends
// on Type: URL/State for NavPush, NavReplace, and PopState; Delta for
// NavGo; Position additionally for PopState.
type Frame struct {
	Type     FrameType
	URL      string
	State    []byte // JSON-encoded opaque state, may be nil
	Delta    int
	Position int
}

// Encode serializes the frame into a fresh buffer.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, 1+len(f.URL)+len(f.State)+2*binary.MaxVarintLen64)
	buf = append(buf, byte(f.Type))

	switch f.Type {
	case FrameNavPush, FrameNavReplace:
		buf = appendBlob(buf, []byte(f.URL))
		buf = appendBlob(buf, f.State)
	case FrameNavGo:
		buf = binary.AppendVarint(buf, int64(f.Delta))
	case FramePopState:
		buf = appendBlob(buf, []byte(f.URL))
		buf = appendBlob(buf, f.State)
		buf = binary.AppendUvarint(buf, uint64(f.Position))
	}

	return buf
}

// Decode parses a frame from data.
func Decode(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, ErrFrameTooShort
	}
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	f := &Frame{Type: FrameType(data[0])}
	rest := data[1:]

	switch f.Type {
	case FramePing, FramePong:
		return f, nil

	case FrameNavPush, FrameNavReplace:
		url, rest, err := readBlob(rest, MaxURLLen, ErrURLTooLong)
		if err != nil {
			return nil, err
		}
		state, _, err := readBlob(rest, MaxStateLen, ErrStateTooLong)
		if err != nil {
			return nil, err
		}
		f.URL = string(url)
		f.State = state
		return f, nil

	case FrameNavGo:
		delta, n := binary.Varint(rest)
		if n <= 0 {
			return nil, ErrTruncatedFrame
		}
		f.Delta = int(delta)
		return f, nil

	case FramePopState:
		url, rest, err := readBlob(rest, MaxURLLen, ErrURLTooLong)
		if err != nil {
			return nil, err
		}
		state, rest, err := readBlob(rest, MaxStateLen, ErrStateTooLong)
		if err != nil {
			return nil, err
		}
		pos, n := binary.Uvarint(rest)
		if n <= 0 {
			return nil, ErrTruncatedFrame
		}
		f.URL = string(url)
		f.State = state
		f.Position = int(pos)
		return f, nil

	default:
		return nil, ErrUnknownFrameType
	}
}

// appendBlob writes a uvarint length prefix followed by b.
func appendBlob(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

// readBlob reads a length-prefixed blob, enforcing max before slicing.
// Returns the blob, the remaining buffer, and an error. A zero-length
// blob decodes as nil.
func readBlob(buf []byte, max int, tooLong error) ([]byte, []byte, error) {
	length, n := binary.Uvarint(buf)
	if n <= 0 {
		return nil, nil, ErrTruncatedFrame
	}
	if length > uint64(max) {
		return nil, nil, tooLong
	}
	buf = buf[n:]
	if uint64(len(buf)) < length {
		return nil, nil, ErrTruncatedFrame
	}
	if length == 0 {
		return nil, buf, nil
	}
	blob := make([]byte, length)
	copy(blob, buf[:length])
	return blob, buf[length:], nil
}

// NewNavPush builds a NavPush frame.
func NewNavPush(url string, state []byte) *Frame {
	return &Frame{Type: FrameNavPush, URL: url, State: state}
}

// NewNavReplace builds a NavReplace frame.
func NewNavReplace(url string, state []byte) *Frame {
	return &Frame{Type: FrameNavReplace, URL: url, State: state}
}

// NewNavGo builds a NavGo frame.
func NewNavGo(delta int) *Frame {
	return &Frame{Type: FrameNavGo, Delta: delta}
}

// NewPopState builds a PopState frame.
func NewPopState(url string, state []byte, position int) *Frame {
	return &Frame{Type: FramePopState, URL: url, State: state, Position: position}
}
