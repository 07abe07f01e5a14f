package cors

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultFileName is the output file written in the working directory
const DefaultFileName = "cors_config.json"

// FileWriter writes serialized configurations to a filesystem
type FileWriter struct {
	fs     afero.Fs
	logger *logrus.Entry
}

// NewFileWriter creates a new file writer
func NewFileWriter(fs afero.Fs, logger *logrus.Entry) *FileWriter {
	return &FileWriter{
		fs:     fs,
		logger: logger,
	}
}

// Write replaces the file at path with data. The handle is always closed;
// a close error is returned only when the write itself succeeded.
func (w *FileWriter) Write(path string, data []byte) (err error) {
	f, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(data),
	}).Debug("CORS configuration written")
	return nil
}

// ReadFile loads and validates a CORS JSON file
func ReadFile(fs afero.Fs, path string) (Configuration, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
