//go:build windows

package fallback

import "os/exec"

// setProcessGroup is a no-op on Windows. CommandContext's default kill stops
// the interpreter, and WaitDelay keeps Resolve bounded if a subprocess it
// spawned is still holding the output pipes.
func setProcessGroup(cmd *exec.Cmd) {}
