//go:build unix

package fallback

import (
	"os/exec"
	"syscall"
)

// setProcessGroup makes the script the leader of a new process group and
// points the context cancel at the group, so a deadline kill reaches every
// subprocess the script spawned, not just the interpreter.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
