// Package service runs the batch correction state machine over a lab's
// submissions.
package service

import (
	"context"
	"strings"

	"labjudge/internal/corrector/compare"
	"labjudge/internal/corrector/model"
	"labjudge/internal/corrector/outcome"
	"labjudge/internal/corrector/repository"
	"labjudge/internal/corrector/svc"
	"labjudge/pkg/errors"
	"labjudge/pkg/utils/contextkey"
	"labjudge/pkg/utils/logger"
)

// Summary aggregates one batch run.
type Summary struct {
	Graded  int
	Skipped int
	Counts  map[model.Category]int
}

// Service grades a lab's submissions against its test cases.
type Service struct {
	svcCtx *svc.ServiceContext
}

func New(svcCtx *svc.ServiceContext) *Service {
	return &Service{svcCtx: svcCtx}
}

// RunBatch corrects every submission selected by the filter. filter is
// a category from an earlier run, or ALL for everything; single narrows
// the batch to one student and implies ALL. Submissions that are
// skipped keep their previous category. Any tooling fault aborts the
// batch; grading problems only classify the submission.
func (s *Service) RunBatch(ctx context.Context, filter string, single string) (Summary, *errors.Error) {
	summary := Summary{Counts: make(map[model.Category]int)}
	cfg := s.svcCtx.Config

	if err := s.svcCtx.Workspace.NormalizeIntake(); err != nil {
		return summary, err
	}
	subs, err := s.svcCtx.Workspace.ListSubmissions()
	if err != nil {
		return summary, err
	}
	if len(subs) == 0 {
		return summary, errors.Newf(errors.SubmissionNotFound, "no submissions under %s", cfg.Lab.StudentsPath)
	}
	if single != "" && !hasSubmission(subs, single) {
		return summary, errors.Newf(errors.SubmissionNotFound, "submission %q not found", single)
	}

	prior, err := s.svcCtx.Roster.Load()
	if err != nil {
		return summary, err
	}

	selector, serr := resolveFilter(ctx, filter, single, subs, prior)
	if serr != nil {
		return summary, serr
	}

	cases, err := repository.ListTestCases(cfg.Lab.TestcasesPath, cfg.Lab.Number, cfg.Extraction)
	if err != nil {
		return summary, err
	}
	logger.Infof(ctx, "starting batch: %d submissions, %d test cases, filter %s", len(subs), len(cases), selector)

	if err := s.svcCtx.Roster.Clear(); err != nil {
		return summary, err
	}

	var retained []model.Submission
	for i, sub := range subs {
		sub.PriorCategory = prior[sub.Name]
		if skip(sub, selector, single) {
			summary.Skipped++
			retained = append(retained, sub)
			continue
		}

		subCtx := context.WithValue(ctx, contextkey.Submission, sub.Name)
		logger.Infof(subCtx, "correcting %s (%d/%d)", sub.Name, i+1, len(subs))
		cat, err := s.correctSubmission(subCtx, sub, cases)
		if err != nil {
			return summary, err
		}
		if err := s.svcCtx.Roster.Append(cat, sub.Name); err != nil {
			return summary, err
		}
		summary.Graded++
		summary.Counts[cat]++
		logger.Infof(subCtx, "graded %s: %s", sub.Name, cat)
	}

	// Skipped submissions keep their earlier category so the rosters
	// stay a complete picture of the lab.
	for _, sub := range retained {
		if sub.PriorCategory == model.CategoryUnknown {
			continue
		}
		if err := s.svcCtx.Roster.Append(sub.PriorCategory, sub.Name); err != nil {
			return summary, err
		}
	}

	logger.Infof(ctx, "batch done: %d graded, %d skipped", summary.Graded, summary.Skipped)
	return summary, nil
}

// resolveFilter settles the effective selection. A category filter is
// only usable when every submission carries a prior category; otherwise
// the batch falls back to ALL. A single-student run always regrades.
func resolveFilter(ctx context.Context, filter, single string, subs []model.Submission, prior map[string]model.Category) (string, *errors.Error) {
	if single != "" {
		return model.FilterAll, nil
	}
	if filter == "" || filter == model.FilterAll {
		return model.FilterAll, nil
	}
	if _, ok := model.ParseCategory(filter); !ok {
		return "", errors.Newf(errors.InvalidParams, "unknown category filter %q", filter)
	}
	for _, sub := range subs {
		if _, ok := prior[sub.Name]; !ok {
			logger.Warnf(ctx, "submission %s has no recorded category, regrading everything", sub.Name)
			return model.FilterAll, nil
		}
	}
	return filter, nil
}

func skip(sub model.Submission, selector, single string) bool {
	if single != "" {
		return sub.Name != single
	}
	if selector == model.FilterAll {
		return false
	}
	return string(sub.PriorCategory) != selector
}

func hasSubmission(subs []model.Submission, name string) bool {
	for _, sub := range subs {
		if sub.Name == name {
			return true
		}
	}
	return false
}

// correctSubmission runs one submission through the full pipeline and
// writes its result file. Expected grading problems classify the
// submission; only tooling faults return an error.
func (s *Service) correctSubmission(ctx context.Context, sub model.Submission, cases []model.TestCase) (model.Category, *errors.Error) {
	ws := s.svcCtx.Workspace
	o := outcome.New(sub.Name)

	if err := ws.PurgeArtifacts(sub, s.svcCtx.Config.Build.BinaryName); err != nil {
		return model.CategoryUnknown, err
	}

	src, extra, found, err := ws.FindSource(sub)
	if err != nil {
		return model.CategoryUnknown, err
	}
	if !found {
		o.Record(model.CategoryWrongFile, "no Lab%d_*.cpp source file found", ws.LabNumber)
		return s.finish(sub, o)
	}
	for _, name := range extra {
		o.Note("ignoring extra source file %s", name)
	}

	source, err := ws.ReadSource(src)
	if err != nil {
		return model.CategoryUnknown, err
	}
	if missing := ws.MissingSourceFilenames(source, sub.Name); len(missing) > 0 {
		o.Record(model.CategoryWrongFile, "source never opens %s", strings.Join(missing, ", "))
		return s.finish(sub, o)
	}

	res, err := s.svcCtx.Runner.Compile(ctx, sub.Dir, src, s.svcCtx.Config.Build.BinaryName)
	if err != nil {
		return model.CategoryUnknown, err
	}
	if res.TimedOut {
		o.Record(model.CategoryCompileError, "compiler timed out")
		return s.finish(sub, o)
	}
	if res.ExitCode != 0 {
		o.Record(model.CategoryCompileError, "compilation failed:\n%s", strings.TrimSpace(res.Stderr))
		return s.finish(sub, o)
	}
	if strings.TrimSpace(res.Stderr) != "" {
		// Warnings are reported but never change the category.
		o.Note("compiler warnings:\n%s", strings.TrimSpace(res.Stderr))
	}

	opts := compare.Options{
		ScalarOrder: s.scalarOrder(),
		IDWidth:     s.svcCtx.Config.Extraction.Sequence.IDWidth,
		SentinelID:  s.svcCtx.Config.Extraction.Sequence.SentinelID,
	}
	for _, tc := range cases {
		if err := s.runTestCase(ctx, sub, tc, o, opts); err != nil {
			return model.CategoryUnknown, err
		}
	}
	o.Note("passed %d of %d test cases", o.Passed, o.Total)

	return s.finish(sub, o)
}

// runTestCase stages, executes and judges one test case. Any failure
// here is confined to the case so the remaining ones still run.
func (s *Service) runTestCase(ctx context.Context, sub model.Submission, tc model.TestCase, o *outcome.Outcome, opts compare.Options) *errors.Error {
	ctx = context.WithValue(ctx, contextkey.TestCase, tc.Name)
	ws := s.svcCtx.Workspace

	if err := ws.PurgeStaleReports(sub); err != nil {
		return err
	}
	if err := ws.StageInputs(tc, sub); err != nil {
		return err
	}

	res, err := s.svcCtx.Runner.Run(ctx, sub.Dir, s.svcCtx.Config.Build.BinaryName)
	if err != nil {
		return err
	}
	if res.TimedOut {
		o.Record(model.CategoryTestcaseError, "%s: execution timed out", tc.Name)
		o.TestCase(false)
		return nil
	}
	if res.ExitCode != 0 {
		o.Record(model.CategoryTestcaseError, "%s: exited with status %d", tc.Name, res.ExitCode)
		o.TestCase(false)
		return nil
	}

	outPath, produced, err := ws.CollectOutput(sub, tc.Name)
	if err != nil {
		return err
	}
	if !produced {
		o.Record(model.CategoryTestcaseError, "%s: no output file produced", tc.Name)
		o.TestCase(false)
		return nil
	}

	lines, err := ws.ReadOutputLines(outPath)
	if err != nil {
		return err
	}
	ex, defect := s.svcCtx.Extractor.Extract(lines, tc.Reference)
	if defect != nil {
		o.Record(model.CategoryFormatError, "%s: %s", tc.Name, defect.Message)
		o.TestCase(false)
		return nil
	}

	verdict := compare.Compare(ex, tc.Reference, opts)
	switch verdict.Kind {
	case model.VerdictPass:
		o.TestCase(true)
	case model.VerdictFormatDefect:
		o.Record(model.CategoryFormatError, "%s: %s", tc.Name, verdict.Detail)
		o.TestCase(false)
	default:
		o.Record(model.CategoryTestcaseError, "%s: %s", tc.Name, verdict.Detail)
		o.TestCase(false)
	}
	return nil
}

// finish cleans the folder, settles the category and writes the result
// file.
func (s *Service) finish(sub model.Submission, o *outcome.Outcome) (model.Category, *errors.Error) {
	if err := s.svcCtx.Workspace.Cleanup(sub); err != nil {
		return model.CategoryUnknown, err
	}
	cat := o.Finalize()
	if err := repository.WriteSubLog(sub.Dir, cat, o.Lines); err != nil {
		return model.CategoryUnknown, err
	}
	return cat, nil
}

func (s *Service) scalarOrder() []string {
	var names []string
	for _, sp := range s.svcCtx.Config.Extraction.Scalars {
		names = append(names, sp.Name)
	}
	return names
}
