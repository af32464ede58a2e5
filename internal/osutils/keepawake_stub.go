//go:build !darwin && !windows

// Package osutils provides small OS integration helpers behind build tags.
package osutils

// KeepAwake is a no-op on platforms without a sleep-inhibition hook.
func KeepAwake(on bool) {}
