package ec

import (
	"encoding/binary"

	"codeberg.org/mutker/fwectl/internal/errors"
)

const (
	// ControlFrameCapacity is the fixed payload capacity of a command
	// transfer frame.
	ControlFrameCapacity = 0x100

	// MemoryMapSize is the scratch buffer capacity of a memory read
	// frame and the extent of the device's exposed memory-map region.
	MemoryMapSize = 255

	controlHeaderLen  = 20 // five u32 fields
	controlFrameLen   = controlHeaderLen + ControlFrameCapacity
	memoryHeaderLen   = 8 // two u32 fields
	memoryFrameLen    = memoryHeaderLen + MemoryMapSize
	initialResultCode = 0xFF

	// headerTrim is excluded from the transfer length and the reported
	// input capacity. The driver counts the wire header as 8 bytes even
	// though the host-side frame carries five u32 fields.
	headerTrim = 8
)

// ControlFrame is the fixed-size request/response block for the command
// transfer operation. A frame is built per call, never reused, and the
// payload buffer is fully allocated and zeroed before use.
type ControlFrame struct {
	Version    uint32
	Command    uint32
	OutSize    uint32
	InCapacity uint32
	Result     uint32
	Buffer     [ControlFrameCapacity]byte
}

// newControlFrame builds a frame with payload copied into the start of
// the buffer. The result code starts poisoned so a device that never
// writes it reads back as a failure.
func newControlFrame(command, version uint32, payload []byte) (*ControlFrame, error) {
	if len(payload) > ControlFrameCapacity {
		return nil, errors.New().WithData(ErrPayloadTooLarge, len(payload))
	}

	f := &ControlFrame{
		Version:    version,
		Command:    command,
		OutSize:    uint32(len(payload)),
		InCapacity: ControlFrameCapacity - headerTrim,
		Result:     initialResultCode,
	}
	copy(f.Buffer[:], payload)

	return f, nil
}

func (f *ControlFrame) encode() []byte {
	buf := make([]byte, controlFrameLen)
	binary.LittleEndian.PutUint32(buf[0:], f.Version)
	binary.LittleEndian.PutUint32(buf[4:], f.Command)
	binary.LittleEndian.PutUint32(buf[8:], f.OutSize)
	binary.LittleEndian.PutUint32(buf[12:], f.InCapacity)
	binary.LittleEndian.PutUint32(buf[16:], f.Result)
	copy(buf[controlHeaderLen:], f.Buffer[:])

	return buf
}

func decodeControlFrame(buf []byte) (*ControlFrame, error) {
	if len(buf) < controlFrameLen {
		return nil, errors.New().WithData(ErrShortFrame, len(buf))
	}

	f := &ControlFrame{
		Version:    binary.LittleEndian.Uint32(buf[0:]),
		Command:    binary.LittleEndian.Uint32(buf[4:]),
		OutSize:    binary.LittleEndian.Uint32(buf[8:]),
		InCapacity: binary.LittleEndian.Uint32(buf[12:]),
		Result:     binary.LittleEndian.Uint32(buf[16:]),
	}
	copy(f.Buffer[:], buf[controlHeaderLen:])

	return f, nil
}

// Payload returns the semantically meaningful response bytes: the first
// min(returned, capacity) bytes of the buffer. Anything beyond that
// length is garbage and ignored.
func (f *ControlFrame) Payload(returned uint32) []byte {
	end := returned
	if end > ControlFrameCapacity {
		end = ControlFrameCapacity
	}

	out := make([]byte, end)
	copy(out, f.Buffer[:end])

	return out
}

// MemoryReadFrame is the fixed-size block for the raw memory-map read
// operation. Same per-call lifecycle as ControlFrame.
type MemoryReadFrame struct {
	Offset uint32
	Bytes  uint32
	Buffer [MemoryMapSize]byte
}

func newMemoryReadFrame(offset, length uint16) (*MemoryReadFrame, error) {
	if length > MemoryMapSize || int(offset)+int(length) > MemoryMapSize {
		return nil, errors.New().WithData(ErrReadOutOfRange, struct {
			Offset uint16
			Length uint16
		}{offset, length})
	}

	return &MemoryReadFrame{
		Offset: uint32(offset),
		Bytes:  uint32(length),
	}, nil
}

func (f *MemoryReadFrame) encode() []byte {
	buf := make([]byte, memoryFrameLen)
	binary.LittleEndian.PutUint32(buf[0:], f.Offset)
	binary.LittleEndian.PutUint32(buf[4:], f.Bytes)
	copy(buf[memoryHeaderLen:], f.Buffer[:])

	return buf
}

func decodeMemoryReadFrame(buf []byte) (*MemoryReadFrame, error) {
	if len(buf) < memoryFrameLen {
		return nil, errors.New().WithData(ErrShortFrame, len(buf))
	}

	f := &MemoryReadFrame{
		Offset: binary.LittleEndian.Uint32(buf[0:]),
		Bytes:  binary.LittleEndian.Uint32(buf[4:]),
	}
	copy(f.Buffer[:], buf[memoryHeaderLen:])

	return f, nil
}

// Slice returns the requested window of the scratch buffer. The length
// is clamped to the buffer in case the device scribbled on the header.
func (f *MemoryReadFrame) Slice() []byte {
	end := f.Bytes
	if end > MemoryMapSize {
		end = MemoryMapSize
	}

	out := make([]byte, end)
	copy(out, f.Buffer[:end])

	return out
}
