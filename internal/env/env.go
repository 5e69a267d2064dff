package env

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Load reads the given .env files in order. Variables already set in the
// process win, and missing files are skipped.
func Load(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}
