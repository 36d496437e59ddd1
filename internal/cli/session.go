package cli

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/explorer"
	"github.com/AndreyAkinshin/cargotest/internal/logging"
	"github.com/AndreyAkinshin/cargotest/internal/project"
)

// session is a loaded project wired to an explorer.
type session struct {
	project  *project.Project
	logger   *zap.Logger
	explorer *explorer.Explorer
}

// open locates the workspace, loads its configuration and builds the
// explorer. onEvent may be nil.
func (a *app) open(onEvent func(explorer.Event)) (*session, error) {
	var root string
	var err error
	if a.dir == "" {
		root, err = project.FindRoot()
	} else {
		root, err = project.FindRootFrom(a.dir)
	}
	if stderrors.Is(err, project.ErrNoProjectRoot) {
		return nil, errors.Config(err.Error())
	}
	if err != nil {
		return nil, err
	}

	proj, err := project.LoadProjectWithConfig(root, a.configPath)
	if err != nil {
		return nil, err
	}
	for _, w := range proj.Warnings {
		a.out.Warning("%s", w)
	}

	cfg := proj.Config
	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: a.verbose,
		Output:  a.out.Err(),
	})
	if err != nil {
		return nil, errors.Config(err.Error())
	}

	client := cargo.NewClient(a.newRunner(cfg, proj.Env, logger), cargo.ClientOptions{
		WorkspaceDir: proj.Root,
		CargoArgs:    cfg.CargoArgs,
		TestArgs:     cfg.TestArgs,
		Logger:       logger,
	})
	exp := explorer.New(client, explorer.Options{
		WorkspaceDir:         proj.Root,
		LoadUnitTests:        cfg.UnitTests(),
		LoadIntegrationTests: cfg.IntegrationTests(),
		Parallel:             cfg.Parallel,
		Logger:               logger,
		OnEvent:              onEvent,
	})

	return &session{project: proj, logger: logger, explorer: exp}, nil
}

// close flushes the logger.
func (s *session) close() {
	_ = s.logger.Sync()
}
