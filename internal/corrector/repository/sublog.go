package repository

import (
	"os"
	"path/filepath"
	"strings"

	"labjudge/internal/corrector/model"
	"labjudge/pkg/errors"
)

// SubLogName is the per-submission result file written into each
// submission folder. Its first line is the category.
const SubLogName = "correction.log"

// WriteSubLog replaces the submission's result file with the final
// category followed by the diagnostic lines in the order they were
// produced.
func WriteSubLog(dir string, cat model.Category, lines []string) *errors.Error {
	var b strings.Builder
	b.WriteString(string(cat))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	path := filepath.Join(dir, SubLogName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, errors.LogWriteFailed, "write %s", path)
	}
	return nil
}
