package inbound

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/stacktrace"
	"github.com/shandysiswandi/queuesend/internal/pkg/uid"
	"github.com/shandysiswandi/queuesend/internal/sender/usecase"
	"github.com/urfave/cli/v2"
)

// UsageLine is printed when no message file is given.
const UsageLine = "Usage: queuesend <messageFileName> [queueName]"

const timestampLayout = time.DateTime

// Sender publishes one message file.
type Sender interface {
	Send(ctx context.Context, in usecase.SendInput) (*usecase.SendOutput, error)
}

// Options are the command-line values needed before configuration is loaded.
type Options struct {
	ConfigPath string
	Driver     string
	Verbose    bool
}

// Runtime is what the command needs once configuration is loaded.
type Runtime struct {
	Sender       Sender
	DefaultQueue string
}

// Bootstrap loads configuration and wires a Runtime. Its errors are
// goerror.TypeConfig errors.
type Bootstrap func(ctx context.Context, opts Options) (*Runtime, error)

type command struct {
	boot Bootstrap
	out  io.Writer
	uuid uid.StringID
}

// NewCommand builds the queuesend command line. Console lines go to out;
// diagnostics go through slog.
func NewCommand(boot Bootstrap, out io.Writer, uuid uid.StringID) *cli.App {
	c := &command{boot: boot, out: out, uuid: uuid}

	return &cli.App{
		Name:            "queuesend",
		Usage:           "Publish a message file to a queue",
		ArgsUsage:       "[options] <messageFileName> [queueName]",
		Writer:          out,
		ErrWriter:       out,
		HideHelpCommand: true,
		Flags:           flags(),
		Action:          c.recoverer(c.run),
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			fmt.Fprintln(out, UsageLine)
			return goerror.NewUsage(err.Error())
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the JSON settings document",
			EnvVars: []string{"CONFIG_PATH"},
		},
		&cli.StringFlag{
			Name:    "session-id",
			Aliases: []string{"s"},
			Usage:   "Session id attached to the message (default: SessionId setting, then 42)",
			EnvVars: []string{"QUEUESEND_SESSION_ID"},
		},
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "Messaging driver (servicebus, kafka, nats, nsq, google-pubsub, amqp)",
			EnvVars: []string{"QUEUESEND_DRIVER"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug diagnostics on stderr",
			EnvVars: []string{"QUEUESEND_VERBOSE"},
		},
	}
}

func (c *command) run(cctx *cli.Context) error {
	if cctx.NArg() == 0 {
		fmt.Fprintln(c.out, UsageLine)
		return goerror.NewUsage(UsageLine)
	}

	// flags are only parsed before the first argument
	for _, arg := range cctx.Args().Tail() {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintln(c.out, UsageLine)
			return goerror.NewUsage("flag after arguments: " + arg)
		}
	}

	fileName := cctx.Args().Get(0)
	ctx := instrument.SetCorrelationID(cctx.Context, c.uuid.Generate())

	rt, err := c.boot(ctx, Options{
		ConfigPath: cctx.String("config"),
		Driver:     cctx.String("driver"),
		Verbose:    cctx.Bool("verbose"),
	})
	if err != nil {
		return c.report(err)
	}

	queue := rt.DefaultQueue
	if cctx.NArg() > 1 {
		queue = cctx.Args().Get(1)
	}

	fmt.Fprintf(c.out, "using Queue: %s\n", queue)

	out, err := rt.Sender.Send(ctx, usecase.SendInput{
		FileName:  fileName,
		QueueName: queue,
		SessionID: cctx.String("session-id"),
	})
	if err != nil {
		return c.report(err)
	}

	fmt.Fprintf(c.out, "%s: Message %s sent successfully to Queue %s\n",
		out.Receipt.SentAt.Format(timestampLayout), fileName, out.Receipt.Queue)

	return nil
}

// recoverer turns a panic in next into an unclassified error.
func (c *command) recoverer(next cli.ActionFunc) cli.ActionFunc {
	return func(cctx *cli.Context) (err error) {
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(cctx.Context, "panic on the command", "because", rvr, "stack", stacktrace.InternalFrames(0))
				err = c.report(fmt.Errorf("panic: %v", rvr))
			}
		}()

		return next(cctx)
	}
}

// report prints the console line for err and returns it for exit code mapping.
func (c *command) report(err error) error {
	ge, ok := goerror.As(err)
	if !ok {
		slog.Error("unclassified error", "error", err)
		fmt.Fprintf(c.out, "Error sending message: %v\n", err)
		return err
	}

	slog.Debug("command failed", failureAttrs(ge)...)

	switch ge.Type() {
	case goerror.TypeConfig:
		fmt.Fprintf(c.out, "failed to load configuration: %v\n", ge)
	case goerror.TypeUsage, goerror.TypeInput:
		fmt.Fprintln(c.out, ge.Error())
	default:
		fmt.Fprintf(c.out, "Error sending message: %v\n", ge)
	}

	return err
}

func failureAttrs(ge *goerror.Error) []any {
	attrs := []any{"type", ge.Type().String(), "code", ge.Code().String(), "detail", ge.String()}
	if fields := ge.Fields(); len(fields) > 0 {
		attrs = append(attrs, "fields", fields)
	}
	return attrs
}
