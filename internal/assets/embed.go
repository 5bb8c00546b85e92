// Package assets holds files embedded into the toolgate binary.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
)

// ExampleConfigName is the file name the example config is written under.
const ExampleConfigName = "toolgate.yaml"

//go:embed toolgate.example.yaml
var exampleConfig []byte

// ErrExists is returned when the target file exists and overwrite was not requested.
var ErrExists = errors.New("file already exists")

// ExampleConfig returns the annotated example configuration.
func ExampleConfig() []byte {
	out := make([]byte, len(exampleConfig))
	copy(out, exampleConfig)
	return out
}

// WriteExampleConfig writes the example configuration to path. The file is
// created with 0600 permissions since it is expected to hold secrets.
func WriteExampleConfig(path string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(exampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
