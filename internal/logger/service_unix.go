//go:build !windows

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return unix.Getpgrp() == unix.Getpid()
}
