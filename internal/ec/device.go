package ec

import (
	"unsafe"

	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
	"golang.org/x/sys/unix"
)

// Known device path aliases, tried in order. Which one exists depends
// on the driver revision that registered the character device.
var devicePaths = []string{
	"/dev/cros_ec",
	"/dev/cros_ec0",
	"/dev/crosec",
}

// ioctl request numbers, _IOWR(iocMagic, nr, size).
const (
	iocMagic = 0xEC

	iocNrXferCmd = 0
	iocNrReadMem = 1

	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
	iocWrite     = 1
	iocRead      = 2
)

func iowr(nr, size uintptr) uintptr {
	return (iocRead|iocWrite)<<iocDirShift | iocMagic<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

// Transport issues control operations against the EC device. It is
// stateless: every operation opens the device, runs a single ioctl and
// closes it again. The device does not tolerate long-lived shared
// handles across threads, so no handle is ever cached.
type Transport struct{}

func NewTransport() *Transport {
	return &Transport{}
}

// open walks the path aliases in order. An access-denied failure on any
// alias short-circuits: retrying the remaining aliases cannot recover a
// privilege problem. Exhausting the list means the driver is missing.
func (t *Transport) open() (int, error) {
	errFactory := errors.New()

	for _, path := range devicePaths {
		fd, err := unix.Open(path, unix.O_RDWR, 0)
		if err == nil {
			return fd, nil
		}
		if err == unix.EACCES || err == unix.EPERM {
			return -1, errFactory.WithData(ErrAccessDenied, path)
		}
	}

	return -1, errFactory.New(ErrDriverMissing)
}

// ioctl issues the request and returns the driver's reported response
// length in bytes.
func (*Transport) ioctl(fd int, req uintptr, buf []byte) (uint32, error) {
	errFactory := errors.New()

	ret, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	switch errno {
	case 0:
		return uint32(ret), nil
	case unix.EACCES, unix.EPERM:
		return 0, errFactory.New(ErrAccessDenied)
	case unix.ENODEV, unix.ENXIO, unix.ENOTTY:
		return 0, errFactory.Wrap(ErrDriverMissing, errno)
	default:
		return 0, errFactory.Wrap(ErrIO, errno)
	}
}

// Ping verifies the device can currently be opened. Used as the
// supervisor's liveness probe.
func (t *Transport) Ping() error {
	fd, err := t.open()
	if err != nil {
		return err
	}
	unix.Close(fd)

	return nil
}

// ReadMemory reads length bytes at offset from the EC's exposed
// memory-map region and returns only the requested slice.
func (t *Transport) ReadMemory(offset, length uint16) ([]byte, error) {
	frame, err := newMemoryReadFrame(offset, length)
	if err != nil {
		return nil, err
	}

	fd, err := t.open()
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	buf := frame.encode()
	if _, err := t.ioctl(fd, iowr(iocNrReadMem, uintptr(len(buf))), buf); err != nil {
		return nil, err
	}

	frame, err = decodeMemoryReadFrame(buf)
	if err != nil {
		return nil, err
	}

	return frame.Slice(), nil
}

// SendCommand issues one command transfer and returns the response
// payload. A nonzero device result code is surfaced as an I/O error
// carrying that code; it is never retried here, retry cadence belongs
// to the supervisor.
func (t *Transport) SendCommand(command, version uint32, payload []byte) ([]byte, error) {
	errFactory := errors.New()

	frame, err := newControlFrame(command, version, payload)
	if err != nil {
		return nil, err
	}

	fd, err := t.open()
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	buf := frame.encode()
	xferLen := uintptr(len(buf) - headerTrim)
	returned, err := t.ioctl(fd, iowr(iocNrXferCmd, xferLen), buf)
	if err != nil {
		return nil, err
	}

	frame, err = decodeControlFrame(buf)
	if err != nil {
		return nil, err
	}

	if frame.Result != 0 {
		logger.Debug().
			Uint32("command", command).
			Uint32("result", frame.Result).
			Msg("EC command failed")

		return nil, errFactory.WithData(ErrIO, frame.Result)
	}

	return frame.Payload(returned), nil
}
