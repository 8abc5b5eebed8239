//go:build unix

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// checkDockerSocketAccess verifies the socket exists and is readable and
// writable by this process. Returns nil if the socket is absent (the first
// tick will report it) or accessible, otherwise the reason it isn't.
func checkDockerSocketAccess(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return &os.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
