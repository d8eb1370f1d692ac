//go:build !linux

package input

import (
	"context"
	"fmt"
	"os"
	"runtime"
)

// Run is not available off Linux
func (c *EvdevCapture) Run(ctx context.Context) error {
	return fmt.Errorf("%w: evdev capture on %s", ErrUnsupportedPlatform, runtime.GOOS)
}

func grab(*os.File, bool) {}
