package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess        = 0 // Evaluation met the threshold
	ExitBelowThreshold = 1 // Evaluation ran but scored below --min-score or --min-band
	ExitError          = 2 // Configuration or runtime error
)

// ThresholdError indicates that the evaluation ran successfully but the
// submission scored below the configured bar.
type ThresholdError struct {
	Message string
}

func (e *ThresholdError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var thresholdErr *ThresholdError
		if errors.As(err, &thresholdErr) {
			os.Exit(ExitBelowThreshold)
		}

		os.Exit(ExitError)
	}
}
