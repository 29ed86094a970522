package config

import "fmt"

var (
	errAskTimeoutMustBePositive     = fmt.Errorf("ask-timeout must be positive")
	errMinStepMustBePositive        = fmt.Errorf("min-step must be positive")
	errFastReduceMaxWindowsNegative = fmt.Errorf("fastreduce-max-windows must not be negative")
)
