//go:build darwin

package osutils

import (
	"log"
	"os/exec"
	"sync"
)

var (
	caffeinateMu  sync.Mutex
	caffeinateCmd *exec.Cmd
)

// KeepAwake holds the display awake while a mirror session is active by
// running caffeinate, and kills it when the session ends.
func KeepAwake(on bool) {
	caffeinateMu.Lock()
	defer caffeinateMu.Unlock()

	if on {
		if caffeinateCmd != nil {
			return
		}
		cmd := exec.Command("caffeinate", "-d", "-i")
		if err := cmd.Start(); err != nil {
			log.Printf("OS: caffeinate start failed: %v", err)
			return
		}
		caffeinateCmd = cmd
		go cmd.Wait()
		return
	}

	if caffeinateCmd != nil {
		if err := caffeinateCmd.Process.Kill(); err != nil {
			log.Printf("OS: caffeinate kill failed: %v", err)
		}
		caffeinateCmd = nil
	}
}
