package repository

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"labjudge/internal/corrector/model"
	"labjudge/pkg/errors"
)

// Roster keeps one text file per category under its directory, each
// line a submission name. The files double as the batch's resume state.
type Roster struct {
	Dir string
}

func rosterPath(dir string, cat model.Category) string {
	return filepath.Join(dir, string(cat)+".txt")
}

// Load reads every category file and returns the prior category of each
// listed submission. Missing files mean no earlier run.
func (r *Roster) Load() (map[string]model.Category, *errors.Error) {
	prior := make(map[string]model.Category)
	for _, cat := range model.Categories() {
		f, err := os.Open(rosterPath(r.Dir, cat))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.RosterError, "open roster %s", cat)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			name := strings.TrimSpace(scanner.Text())
			if name != "" {
				prior[name] = cat
			}
		}
		serr := scanner.Err()
		f.Close()
		if serr != nil {
			return nil, errors.Wrapf(serr, errors.RosterError, "read roster %s", cat)
		}
	}
	return prior, nil
}

// Clear truncates every category file so the batch being started owns
// the rosters from its first submission on.
func (r *Roster) Clear() *errors.Error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.RosterError, "create rosters dir %s", r.Dir)
	}
	for _, cat := range model.Categories() {
		if err := os.WriteFile(rosterPath(r.Dir, cat), nil, 0o644); err != nil {
			return errors.Wrapf(err, errors.RosterError, "truncate roster %s", cat)
		}
	}
	return nil
}

// Append records one graded submission under its category. Each append
// happens right after the submission finishes, so an interrupted batch
// leaves a usable resume point.
func (r *Roster) Append(cat model.Category, submission string) *errors.Error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.RosterError, "create rosters dir %s", r.Dir)
	}
	f, err := os.OpenFile(rosterPath(r.Dir, cat), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, errors.RosterError, "open roster %s", cat)
	}
	defer f.Close()
	if _, err := f.WriteString(submission + "\n"); err != nil {
		return errors.Wrapf(err, errors.RosterError, "append to roster %s", cat)
	}
	return nil
}
