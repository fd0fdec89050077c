package config

import "fmt"

type ErrInvalidConfig struct {
	Structure []string
	Value     any
	Message   string
}

func newInvalidConfig(structure []string, value any, message string) ErrInvalidConfig {
	return ErrInvalidConfig{
		Structure: structure,
		Value:     value,
		Message:   message,
	}
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Message)
}
