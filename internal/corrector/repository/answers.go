// Package repository persists and loads the corrector's on-disk data:
// reference answers, category rosters and per-submission logs.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"labjudge/internal/corrector/config"
	"labjudge/internal/corrector/model"
	"labjudge/pkg/errors"
)

// ReferenceFileName is the answers file each test case folder carries.
func ReferenceFileName(lab int) string {
	return fmt.Sprintf("saida%d.json", lab)
}

// ListTestCases enumerates test case folders under root, loading each
// one's reference answers. Order is sorted by name so every batch runs
// the cases the same way.
func ListTestCases(root string, lab int, spec config.ExtractionSpec) ([]model.TestCase, *errors.Error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.TestCaseNotFound, "read test cases dir %s", root)
	}
	var cases []model.TestCase
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		ref, lerr := LoadReference(filepath.Join(dir, ReferenceFileName(lab)), spec)
		if lerr != nil {
			return nil, lerr
		}
		cases = append(cases, model.TestCase{Name: entry.Name(), Dir: dir, Reference: ref})
	}
	if len(cases) == 0 {
		return nil, errors.Newf(errors.TestCaseNotFound, "no test case folders under %s", root)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// LoadReference reads one test case's answers file. Every configured
// scalar must be present as a number or a string; the sequence and aux
// fields are optional.
func LoadReference(path string, spec config.ExtractionSpec) (model.Reference, *errors.Error) {
	ref := model.Reference{Scalars: make(map[string]model.ScalarValue)}
	data, err := os.ReadFile(path)
	if err != nil {
		return ref, errors.Wrapf(err, errors.ReferenceNotFound, "read answers %s", path)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return ref, errors.Wrapf(err, errors.ReferenceInvalid, "parse answers %s", path)
	}

	for _, s := range spec.Scalars {
		raw, ok := doc[s.Name]
		if !ok {
			return ref, errors.Newf(errors.ReferenceInvalid, "answers %s missing field %q", path, s.Name)
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			ref.Scalars[s.Name] = model.ScalarValue{Kind: model.ScalarInt, Int: n}
			continue
		}
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return ref, errors.Newf(errors.ReferenceInvalid, "answers %s field %q is neither number nor string", path, s.Name)
		}
		ref.Scalars[s.Name] = model.ScalarValue{Kind: model.ScalarString, Str: str}
	}

	if raw, ok := doc[spec.Sequence.FieldName]; ok {
		if err := json.Unmarshal(raw, &ref.Sequence); err != nil {
			return ref, errors.Wrapf(err, errors.ReferenceInvalid, "answers %s field %q", path, spec.Sequence.FieldName)
		}
	}
	if spec.Sequence.AuxField != "" {
		if raw, ok := doc[spec.Sequence.AuxField]; ok {
			if err := json.Unmarshal(raw, &ref.Aux); err != nil {
				return ref, errors.Wrapf(err, errors.ReferenceInvalid, "answers %s field %q", path, spec.Sequence.AuxField)
			}
		}
	}
	return ref, nil
}
