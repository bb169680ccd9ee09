// Package workspace manages submission folders on disk: intake
// normalization, source discovery, test input staging, output capture
// and artifact cleanup.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"labjudge/internal/corrector/match"
	"labjudge/internal/corrector/model"
	"labjudge/pkg/errors"
)

var fopenPattern = regexp.MustCompile(`fopen\s*\(\s*"([^"]*)"`)

// Workspace operates on a lab's students directory.
type Workspace struct {
	LabNumber  int
	Root       string
	OutputGlob string
	InputGlobs []string
	KeepFiles  []string
}

// NormalizeIntake fixes common packaging mistakes before grading:
// loose source files are moved into a folder named after the student,
// and source file names get canonical casing.
func (w *Workspace) NormalizeIntake() *errors.Error {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return errors.Wrapf(err, errors.IntakeFailed, "read students dir %s", w.Root)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := w.normalizeSources(filepath.Join(w.Root, entry.Name())); err != nil {
				return err
			}
			continue
		}
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ".cpp" {
			continue
		}
		student := studentFromFilename(name, w.LabNumber)
		dir := filepath.Join(w.Root, student)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.IntakeFailed, "create submission dir %s", dir)
		}
		dst := filepath.Join(dir, fixSourceCasing(name))
		if err := os.Rename(filepath.Join(w.Root, name), dst); err != nil {
			return errors.Wrapf(err, errors.IntakeFailed, "move loose source %s", name)
		}
	}
	return nil
}

func (w *Workspace) normalizeSources(dir string) *errors.Error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.IntakeFailed, "read submission dir %s", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ".cpp" {
			continue
		}
		// Only casing is repaired here; a genuinely misnamed source must
		// still be classified, not silently fixed.
		fixed := fixSourceCasing(name)
		if fixed == name {
			continue
		}
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, fixed)); err != nil {
			return errors.Wrapf(err, errors.IntakeFailed, "rename source %s", name)
		}
	}
	return nil
}

// ListSubmissions returns one Submission per student folder, sorted by
// name so batch order is stable across runs.
func (w *Workspace) ListSubmissions() ([]model.Submission, *errors.Error) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.WorkspaceError, "read students dir %s", w.Root)
	}
	var subs []model.Submission
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subs = append(subs, model.Submission{
			Name: entry.Name(),
			Dir:  filepath.Join(w.Root, entry.Name()),
		})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

// FindSource locates the submission's source file. A missing source is
// a grading outcome, not an error; with several candidates the first in
// sorted order wins and the rest are reported.
func (w *Workspace) FindSource(sub model.Submission) (path string, extra []string, found bool, ferr *errors.Error) {
	pattern := filepath.Join(sub.Dir, fmt.Sprintf("Lab%d_*.cpp", w.LabNumber))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", nil, false, errors.Wrapf(err, errors.WorkspaceError, "glob %s", pattern)
	}
	if len(matches) == 0 {
		return "", nil, false, nil
	}
	sort.Strings(matches)
	for _, m := range matches[1:] {
		extra = append(extra, filepath.Base(m))
	}
	return matches[0], extra, true, nil
}

// ReadSource reads a source file, accepting Latin-1 encoded bytes.
func (w *Workspace) ReadSource(path string) (string, *errors.Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.WorkspaceError, "read source %s", path)
	}
	return decode(data), nil
}

// ExpectedInputName is the data file the lab statement tells students
// to open.
func (w *Workspace) ExpectedInputName() string {
	return fmt.Sprintf("entrada%d.txt", w.LabNumber)
}

// ExpectedOutputName is the report file a submission must produce.
func (w *Workspace) ExpectedOutputName(student string) string {
	return fmt.Sprintf("Lab%d_%s.txt", w.LabNumber, student)
}

// MissingSourceFilenames returns the required data file names the
// source never opens with fopen: the lab's input file and a
// Lab{N}_*.txt report. Opening additional scratch files is tolerated.
func (w *Workspace) MissingSourceFilenames(source, student string) []string {
	input := strings.ToLower(w.ExpectedInputName())
	outPrefix := strings.ToLower(fmt.Sprintf("Lab%d_", w.LabNumber))
	hasInput, hasOutput := false, false
	for _, m := range fopenPattern.FindAllStringSubmatch(source, -1) {
		name := strings.ToLower(strings.TrimSpace(m[1]))
		if name == input {
			hasInput = true
		}
		if strings.HasPrefix(name, outPrefix) && strings.HasSuffix(name, ".txt") {
			hasOutput = true
		}
	}
	var missing []string
	if !hasInput {
		missing = append(missing, w.ExpectedInputName())
	}
	if !hasOutput {
		missing = append(missing, w.ExpectedOutputName(student))
	}
	return missing
}

// PurgeArtifacts removes leftovers from a previous run: captured
// outputs, copied inputs, built binaries and stale report files.
func (w *Workspace) PurgeArtifacts(sub model.Submission, binary string) *errors.Error {
	if err := os.RemoveAll(filepath.Join(sub.Dir, "outputs")); err != nil {
		return errors.Wrapf(err, errors.ArtifactPurgeFailed, "remove outputs dir in %s", sub.Name)
	}
	globs := append([]string{w.OutputGlob, binary}, w.InputGlobs...)
	for _, g := range globs {
		if g == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(sub.Dir, g))
		if err != nil {
			return errors.Wrapf(err, errors.ArtifactPurgeFailed, "glob %s in %s", g, sub.Name)
		}
		for _, m := range matches {
			if strings.EqualFold(filepath.Ext(m), ".cpp") {
				continue
			}
			if err := os.Remove(m); err != nil {
				return errors.Wrapf(err, errors.ArtifactPurgeFailed, "remove %s", m)
			}
		}
	}
	return nil
}

// StageInputs copies the test case's input files into the submission
// folder, replacing any previous ones.
func (w *Workspace) StageInputs(tc model.TestCase, sub model.Submission) *errors.Error {
	for _, g := range w.InputGlobs {
		matches, err := filepath.Glob(filepath.Join(tc.Dir, g))
		if err != nil {
			return errors.Wrapf(err, errors.InputCopyFailed, "glob %s in %s", g, tc.Name)
		}
		for _, src := range matches {
			dst := filepath.Join(sub.Dir, filepath.Base(src))
			if err := copyFile(src, dst); err != nil {
				return errors.Wrapf(err, errors.InputCopyFailed, "copy %s for %s", filepath.Base(src), sub.Name)
			}
		}
	}
	return nil
}

// PurgeStaleReports removes any report files left over from a previous
// run, so a test case is never graded against another case's output.
func (w *Workspace) PurgeStaleReports(sub model.Submission) *errors.Error {
	matches, err := filepath.Glob(filepath.Join(sub.Dir, w.OutputGlob))
	if err != nil {
		return errors.Wrapf(err, errors.ArtifactPurgeFailed, "glob %s in %s", w.OutputGlob, sub.Name)
	}
	for _, m := range matches {
		if strings.EqualFold(filepath.Ext(m), ".cpp") {
			continue
		}
		if err := os.Remove(m); err != nil {
			return errors.Wrapf(err, errors.ArtifactPurgeFailed, "remove %s", m)
		}
	}
	return nil
}

// CollectOutput archives the report the submission wrote, moving it to
// outputs/<testcase>.txt. A missing report is a grading outcome.
func (w *Workspace) CollectOutput(sub model.Submission, tcName string) (string, bool, *errors.Error) {
	matches, err := filepath.Glob(filepath.Join(sub.Dir, w.OutputGlob))
	if err != nil {
		return "", false, errors.Wrapf(err, errors.WorkspaceError, "glob %s in %s", w.OutputGlob, sub.Name)
	}
	var candidates []string
	for _, m := range matches {
		if strings.EqualFold(filepath.Ext(m), ".txt") {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", false, nil
	}
	sort.Strings(candidates)
	outDir := filepath.Join(sub.Dir, "outputs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", false, errors.Wrapf(err, errors.WorkspaceError, "create outputs dir in %s", sub.Name)
	}
	dst := filepath.Join(outDir, tcName+".txt")
	if err := os.Rename(candidates[0], dst); err != nil {
		return "", false, errors.Wrapf(err, errors.WorkspaceError, "archive output for %s", sub.Name)
	}
	return dst, true, nil
}

// ReadOutputLines loads a captured report as normalized lines: Latin-1
// tolerant decoding, folded diacritics, no trailing CR or LF.
func (w *Workspace) ReadOutputLines(path string) ([]string, *errors.Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.OutputReadFailed, "read output %s", path)
	}
	text := decode(data)
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, match.Normalize(strings.TrimRight(line, "\r")))
	}
	// A trailing newline is not an extra report line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// Cleanup removes everything from the submission folder except the
// retained artifacts.
func (w *Workspace) Cleanup(sub model.Submission) *errors.Error {
	entries, err := os.ReadDir(sub.Dir)
	if err != nil {
		return errors.Wrapf(err, errors.WorkspaceError, "read submission dir %s", sub.Name)
	}
	for _, entry := range entries {
		if w.retained(entry.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(sub.Dir, entry.Name())); err != nil {
			return errors.Wrapf(err, errors.WorkspaceError, "remove %s in %s", entry.Name(), sub.Name)
		}
	}
	return nil
}

func (w *Workspace) retained(name string) bool {
	lower := strings.ToLower(name)
	for _, keep := range w.KeepFiles {
		k := strings.ToLower(keep)
		if strings.HasPrefix(k, ".") {
			if filepath.Ext(lower) == k {
				return true
			}
		} else if lower == k {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// decode interprets bytes as UTF-8 when valid and Latin-1 otherwise.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func studentFromFilename(name string, lab int) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	prefix := fmt.Sprintf("lab%d_", lab)
	if len(base) > len(prefix) && strings.EqualFold(base[:len(prefix)], prefix) {
		return base[len(prefix):]
	}
	return base
}

// fixSourceCasing repairs "lab" prefix and ".CPP" extension casing
// without touching the rest of the file name.
func fixSourceCasing(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasPrefix(base, "lab") {
		base = "Lab" + base[len("lab"):]
	}
	return base + ".cpp"
}
