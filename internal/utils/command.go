package utils

import (
	"bytes"
	"os/exec"
)

/**
 * Runner executes external commands and reports their exit status
 * @description
 * - Components that shell out (systemctl, package managers, useradd)
 *   accept a Runner so tests can substitute a fake executor
 */
type Runner interface {
	Run(name string, args ...string) (stdout, stderr string, code int)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) (stdout, stderr string, code int) {
	cmd := exec.Command(name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
		if stderr == "" {
			stderr = err.Error()
		}
	}
	return
}

// LookPath reports whether a binary can be found on PATH.
func LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
