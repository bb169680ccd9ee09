package svc

import (
	"labjudge/internal/corrector/config"
	"labjudge/internal/corrector/extract"
	"labjudge/internal/corrector/repository"
	"labjudge/internal/corrector/runner"
	"labjudge/internal/corrector/workspace"
	"labjudge/pkg/errors"
)

// ServiceContext wires the corrector's dependencies from configuration.
type ServiceContext struct {
	Config    config.Config
	Workspace *workspace.Workspace
	Roster    *repository.Roster
	Runner    runner.Runner
	Extractor *extract.Extractor
}

func NewServiceContext(c config.Config) (*ServiceContext, *errors.Error) {
	ex, err := extract.New(c.Extraction)
	if err != nil {
		return nil, errors.GetError(err)
	}
	return &ServiceContext{
		Config: c,
		Workspace: &workspace.Workspace{
			LabNumber:  c.Lab.Number,
			Root:       c.Lab.StudentsPath,
			OutputGlob: c.Run.OutputGlob,
			InputGlobs: c.Run.InputGlobs,
			KeepFiles:  c.Lab.KeepFiles,
		},
		Roster: &repository.Roster{Dir: c.Lab.RostersPath},
		Runner: &runner.ProcessRunner{
			CompileTemplate: c.Build.CmdTemplate,
			RunTemplate:     c.Run.CmdTemplate,
			CompileTimeout:  c.Build.Timeout,
			RunTimeout:      c.Run.Timeout,
		},
		Extractor: ex,
	}, nil
}
