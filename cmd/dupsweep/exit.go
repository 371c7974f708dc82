package main

import "fmt"

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

// exitError carries a specific exit code out of a command. A nil err
// exits without printing anything.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
