// Package config defines the corrector configuration loaded from YAML.
package config

import (
	"time"

	"labjudge/internal/corrector/match"
	appErr "labjudge/pkg/errors"
	"labjudge/pkg/utils/logger"
)

// Config is the root configuration for one lab correction batch.
type Config struct {
	Lab        LabConfig      `json:"lab"`
	Build      BuildConfig    `json:"build"`
	Run        RunConfig      `json:"run"`
	Extraction ExtractionSpec `json:"extraction"`
	Pack       PackConfig     `json:"pack,optional"`
	Logger     logger.Config  `json:"logger,optional"`
}

// LabConfig holds lab identity and filesystem roots.
type LabConfig struct {
	Number        int    `json:"number"`
	StudentsPath  string `json:"studentsPath"`
	TestcasesPath string `json:"testcasesPath"`
	RostersPath   string `json:"rostersPath"`

	// KeepFiles lists file names or extensions preserved in a submission
	// directory after a pass; everything else is purged.
	KeepFiles []string `json:"keepFiles,optional"`
}

// BuildConfig holds compiler invocation settings.
type BuildConfig struct {
	// CmdTemplate is shlex-split after {src} and {bin} expansion.
	CmdTemplate string        `json:"cmdTemplate"`
	BinaryName  string        `json:"binaryName,optional"`
	Timeout     time.Duration `json:"timeout"`
}

// RunConfig holds submission execution settings.
type RunConfig struct {
	CmdTemplate string        `json:"cmdTemplate,optional"`
	Timeout     time.Duration `json:"timeout"`

	// OutputGlob matches the output file the submission must produce
	// inside its working directory.
	OutputGlob string `json:"outputGlob,optional"`

	// InputGlobs match the test case files copied into the working
	// directory before each run.
	InputGlobs []string `json:"inputGlobs,optional"`
}

// PackConfig holds optional test-case pack settings.
type PackConfig struct {
	// Path points at a .tar.zst pack extracted into the testcases dir.
	Path string `json:"path,optional"`

	// Hash, when set, is the expected sha256 of the pack file.
	Hash string `json:"hash,optional"`
}

// ScalarSpec describes how to locate one named scalar in the output.
// Order inside ExtractionSpec.Scalars is significant: extraction fails
// fast on the first scalar that cannot be located.
type ScalarSpec struct {
	Name           string   `json:"name"`
	LineSelectors  []string `json:"lineSelectors"`
	ValueSelectors []string `json:"valueSelectors"`
}

// SequenceSpec describes how to locate the ordered record sequence.
type SequenceSpec struct {
	// FieldName is the reference JSON field carrying the expected order.
	FieldName string `json:"fieldName,optional"`

	// AuxField is the optional reference JSON field mapping identifiers
	// to auxiliary origin strings.
	AuxField string `json:"auxField,optional"`

	// FromReference derives record selectors from the reference
	// identifiers; LineSelectors is the static fallback set.
	FromReference  bool     `json:"fromReference,optional"`
	LineSelectors  []string `json:"lineSelectors,optional"`
	ValueSelectors []string `json:"valueSelectors,optional"`

	// SentinelID is the null record identifier excluded from the
	// auxiliary origin map (e.g. "0000").
	SentinelID string `json:"sentinelID,optional"`

	// IDWidth is the fixed width of the numeric identifier shape used by
	// the empty-section rules.
	IDWidth int `json:"idWidth,optional"`
}

// LayoutSpec describes the required report layout around the record block.
type LayoutSpec struct {
	Enabled bool `json:"enabled,optional"`

	// HeaderLines is the number of free-form header lines before the
	// section marker.
	HeaderLines int `json:"headerLines,optional"`

	// SectionMarker is the word sequence opening the record block,
	// compared case-insensitively word by word.
	SectionMarker []string `json:"sectionMarker,optional"`

	// MinRecordFields is the minimum field count of a record line.
	MinRecordFields int `json:"minRecordFields,optional"`

	// NumericID requires the first field of a record line to be digits.
	NumericID bool `json:"numericID,optional"`
}

// ExtractionSpec is the full output extraction configuration.
type ExtractionSpec struct {
	Scalars  []ScalarSpec `json:"scalars,optional"`
	Sequence SequenceSpec `json:"sequence"`
	Layout   LayoutSpec   `json:"layout,optional"`
}

// ApplyDefaults fills unset fields with their conventional values.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.Build.CmdTemplate == "" {
		c.Build.CmdTemplate = "g++ {src} -o {bin}"
	}
	if c.Build.BinaryName == "" {
		c.Build.BinaryName = "a.out"
	}
	if c.Build.Timeout <= 0 {
		c.Build.Timeout = 5 * time.Second
	}
	if c.Run.CmdTemplate == "" {
		c.Run.CmdTemplate = "./{bin}"
	}
	if c.Run.Timeout <= 0 {
		c.Run.Timeout = 5 * time.Second
	}
	if c.Run.OutputGlob == "" {
		c.Run.OutputGlob = "Lab*.txt"
	}
	if len(c.Run.InputGlobs) == 0 {
		c.Run.InputGlobs = []string{"entrada*.txt", "Entrada*.txt"}
	}
	if len(c.Lab.KeepFiles) == 0 {
		c.Lab.KeepFiles = []string{"correction.log", "outputs", ".cpp"}
	}
	if c.Extraction.Sequence.FieldName == "" {
		c.Extraction.Sequence.FieldName = "order"
	}
	if len(c.Extraction.Sequence.ValueSelectors) == 0 {
		c.Extraction.Sequence.ValueSelectors = []string{`^(.*\S)`}
	}
	if c.Extraction.Sequence.IDWidth <= 0 {
		c.Extraction.Sequence.IDWidth = 4
	}
	if c.Extraction.Layout.Enabled && c.Extraction.Layout.MinRecordFields <= 0 {
		c.Extraction.Layout.MinRecordFields = 1
	}
}

// Validate checks paths and compiles every selector once so pattern
// errors surface at load time, not in the middle of a batch.
func (c *Config) Validate() error {
	if c.Lab.Number <= 0 {
		return appErr.ValidationError("lab.number", "must be positive")
	}
	if c.Lab.StudentsPath == "" {
		return appErr.ValidationError("lab.studentsPath", "required")
	}
	if c.Lab.TestcasesPath == "" {
		return appErr.ValidationError("lab.testcasesPath", "required")
	}
	if c.Lab.RostersPath == "" {
		return appErr.ValidationError("lab.rostersPath", "required")
	}
	seen := make(map[string]bool, len(c.Extraction.Scalars))
	for _, s := range c.Extraction.Scalars {
		if s.Name == "" {
			return appErr.ValidationError("extraction.scalars.name", "required")
		}
		if seen[s.Name] {
			return appErr.Newf(appErr.SpecInvalid, "duplicate scalar spec %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.ValueSelectors) == 0 {
			return appErr.Newf(appErr.SpecInvalid, "scalar spec %q has no value selectors", s.Name)
		}
		if _, err := match.CompileLineSelectors(s.LineSelectors); err != nil {
			return err
		}
		if _, err := match.CompileSelectors(s.ValueSelectors); err != nil {
			return err
		}
	}
	if _, err := match.CompileLineSelectors(c.Extraction.Sequence.LineSelectors); err != nil {
		return err
	}
	if _, err := match.CompileSelectors(c.Extraction.Sequence.ValueSelectors); err != nil {
		return err
	}
	if c.Extraction.Layout.Enabled && len(c.Extraction.Layout.SectionMarker) == 0 {
		return appErr.ValidationError("extraction.layout.sectionMarker", "required when layout is enabled")
	}
	return nil
}
