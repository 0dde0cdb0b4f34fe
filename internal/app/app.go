package app

import (
	"context"
	"io"
	"time"

	"github.com/shandysiswandi/queuesend/internal/pkg/clock"
	"github.com/shandysiswandi/queuesend/internal/pkg/config"
	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/storage"
	"github.com/shandysiswandi/queuesend/internal/pkg/uid"
	"github.com/shandysiswandi/queuesend/internal/pkg/validator"
	"github.com/shandysiswandi/queuesend/internal/sender/inbound"
	"github.com/shandysiswandi/queuesend/internal/sender/outbound/mq"
	"github.com/shandysiswandi/queuesend/internal/sender/usecase"
)

// App wires dependencies and manages the lifecycle of one invocation.
type App struct {
	stdout io.Writer

	// configuration
	config   config.Config
	settings config.Settings
	ins      instrument.Instrumentation

	// libraries
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID

	// resources
	storage storage.Storage
	driver  string
	opener  mq.Opener

	// modules
	sender *usecase.Usecase

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the parts of the application needed before the command
// line is parsed. Console lines are written to stdout.
func New(stdout io.Writer) *App {
	app := &App{stdout: stdout}

	app.initLogging()
	app.initLibraries()

	return app
}

// Run executes one command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd := inbound.NewCommand(a.bootstrap, a.stdout, a.uuid)
	err := cmd.RunContext(ctx, args)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	a.Stop(stopCtx)

	return goerror.ExitCode(err)
}

// bootstrap runs once the command line names a message file. Any failure is
// fatal and reported as a configuration error.
func (a *App) bootstrap(ctx context.Context, opts inbound.Options) (*inbound.Runtime, error) {
	if err := a.initConfig(opts); err != nil {
		return nil, goerror.NewConfig(err)
	}
	a.initClosers()

	if err := a.initInstrument(ctx, opts); err != nil {
		return nil, goerror.NewConfig(err)
	}
	if err := a.initStorage(ctx); err != nil {
		return nil, goerror.NewConfig(err)
	}
	if err := a.initMessaging(ctx, opts); err != nil {
		return nil, goerror.NewConfig(err)
	}
	if err := a.initModules(); err != nil {
		return nil, goerror.NewConfig(err)
	}

	return &inbound.Runtime{Sender: a.sender, DefaultQueue: a.settings.QueueName}, nil
}
