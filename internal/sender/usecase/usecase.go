package usecase

import (
	"context"

	"github.com/shandysiswandi/queuesend/internal/pkg/clock"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/uid"
	"github.com/shandysiswandi/queuesend/internal/pkg/validator"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"go.opentelemetry.io/otel/trace"
)

type repoSource interface {
	// GetMessage reads the named message. A missing message is reported as
	// an error wrapping goerror.ErrNotFound.
	GetMessage(ctx context.Context, name string) (*entity.Message, error)
	// Location renders where name is looked up, for console output.
	Location(name string) string
}

type repoMessaging interface {
	Publish(ctx context.Context, queue string, msg entity.Message) (*entity.Receipt, error)
}

type Usecase struct {
	repoSource       repoSource
	repoMessaging    repoMessaging
	validator        validator.Validator
	uuid             uid.StringID
	clock            clock.Clocker
	ins              instrument.Instrumentation
	defaultSessionID string
}

type Dependency struct {
	RepoSource       repoSource
	RepoMessaging    repoMessaging
	Validator        validator.Validator
	UUID             uid.StringID
	Clock            clock.Clocker
	Instrument       instrument.Instrumentation
	DefaultSessionID string
}

func New(dep Dependency) *Usecase {
	sessionID := dep.DefaultSessionID
	if sessionID == "" {
		sessionID = entity.DefaultSessionID
	}

	return &Usecase{
		repoSource:       dep.RepoSource,
		repoMessaging:    dep.RepoMessaging,
		validator:        dep.Validator,
		uuid:             dep.UUID,
		clock:            dep.Clock,
		ins:              dep.Instrument,
		defaultSessionID: sessionID,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("sender.usecase").Start(ctx, name)
}
