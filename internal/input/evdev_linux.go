//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// deviceName asks the kernel for the device's human-readable name
// (EVIOCGNAME). Failures just yield an empty name.
func deviceName(path string) string {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return ""
	}
	defer unix.Close(fd)

	buf := make([]byte, 256)
	req := ioc(iocRead, uint32('E'), 0x06, uint32(len(buf)))
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0]))); errno != 0 {
		return ""
	}
	return unix.ByteSliceToString(buf)
}

// grab toggles exclusive access (EVIOCGRAB). Failures are logged; the
// capture keeps working without the grab.
func grab(f *os.File, on bool) {
	raw, err := f.SyscallConn()
	if err != nil {
		return
	}
	v := 0
	if on {
		v = 1
	}
	var ioErr error
	raw.Control(func(fd uintptr) {
		ioErr = unix.IoctlSetInt(int(fd), uint(ioc(iocWrite, uint32('E'), 0x90, 4)), v)
	})
	if ioErr != nil {
		log.Warnf("Capture: EVIOCGRAB(%d) on %s failed: %v", v, f.Name(), ioErr)
	}
}

// open checks permissions and opens the device node. A missing read
// permission is reported as ErrPermissionDenied.
func (c *EvdevCapture) open() (*os.File, error) {
	if err := unix.Access(c.path, unix.R_OK); err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return nil, fmt.Errorf("%w: cannot read %s (is the user in the input group?)", ErrPermissionDenied, c.path)
		}
		return nil, fmt.Errorf("evdev: %s: %w", c.path, err)
	}

	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, c.path)
		}
		return nil, fmt.Errorf("evdev: open %s: %w", c.path, err)
	}
	return f, nil
}

// Run reads the device until ctx is cancelled. Only the first open can
// fail the capture; a device that fails later, for example because it was
// unplugged, is reopened every delay until ctx is done.
func (c *EvdevCapture) Run(ctx context.Context) error {
	f, err := c.open()
	if err != nil {
		return err
	}
	log.Printf("Capture: reading buttons from %s (%s)", c.path, deviceName(c.path))

	for {
		err := c.read(ctx, f)
		if ctx.Err() != nil {
			return nil
		}
		log.Warnf("Capture: %v, reopening in %s", err, c.delay)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.delay):
			}
			if f, err = c.open(); err == nil {
				log.Printf("Capture: reopened %s", c.path)
				break
			}
			log.Warnf("Capture: %v", err)
		}
	}
}

// read consumes f until it fails or ctx is cancelled, then closes it.
func (c *EvdevCapture) read(ctx context.Context, f *os.File) error {
	c.attach(f)
	defer f.Close()
	defer c.detach()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-stop:
		}
	}()

	parser := eventParser{size: int(unsafe.Sizeof(unix.Timeval{})) + 8}
	buf := make([]byte, parser.size*64)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			parser.feed(buf[:n], c.handle)
		}
		if err != nil {
			return fmt.Errorf("evdev: read %s: %w", c.path, err)
		}
	}
}
