package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// DefaultCSVFileName is created in the working directory
const DefaultCSVFileName = "esp_users_report.csv"

// ErrFileExists is returned when the report file is already present
var ErrFileExists = errors.New("report file already exists")

// FileExists reports whether anything exists at name
func FileExists(name string) bool {
	_, err := os.Lstat(name)
	return err == nil
}

// CreateFile opens name for writing, failing with ErrFileExists rather than
// truncating an existing file.
func CreateFile(name string) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrFileExists)
		}
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return f, nil
}

// Verify reports whether name exists and is non-empty
func Verify(name string) bool {
	info, err := os.Stat(name)
	if err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Report file missing")
		return false
	}

	log.Debug().
		Str("file", name).
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Msg("Report file written")
	return info.Mode().IsRegular() && info.Size() > 0
}
