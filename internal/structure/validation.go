package structure

import (
	"errors"
	"fmt"
)

// ErrInvalidStructure indicates a document with impossible counters.
var ErrInvalidStructure = errors.New("invalid project structure")

// Validate checks every file in doc for negative counters and for idle time
// exceeding total time.
func Validate(doc Document) error {
	var err error
	Walk(doc, func(folderPath string, f FileStat) {
		if err != nil {
			return
		}
		name := joinPath(folderPath, f.FileName)
		switch {
		case f.IdleDuration < 0, f.TotalDuration < 0, f.KeystrokesCount < 0, f.FileSwitchCount < 0:
			err = fmt.Errorf("%w: %s has a negative counter", ErrInvalidStructure, name)
		case f.IdleDuration > f.TotalDuration:
			err = fmt.Errorf("%w: %s idle_duration exceeds total_duration", ErrInvalidStructure, name)
		}
	})
	return err
}
