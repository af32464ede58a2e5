//go:build windows

package osutils

import (
	"log"

	"golang.org/x/sys/windows"
)

const (
	esContinuous      = 0x80000000
	esDisplayRequired = 0x00000002
	esSystemRequired  = 0x00000001
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

// KeepAwake holds the display and system awake while a mirror session is
// active, and releases the hold when it ends.
func KeepAwake(on bool) {
	flags := uintptr(esContinuous)
	if on {
		flags |= esDisplayRequired | esSystemRequired
	}
	if ret, _, err := procSetThreadExecutionState.Call(flags); ret == 0 {
		log.Printf("OS: SetThreadExecutionState failed: %v", err)
	}
}
