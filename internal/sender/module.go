package sender

import (
	"context"

	"github.com/shandysiswandi/queuesend/internal/pkg/clock"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/storage"
	"github.com/shandysiswandi/queuesend/internal/pkg/uid"
	"github.com/shandysiswandi/queuesend/internal/pkg/validator"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"github.com/shandysiswandi/queuesend/internal/sender/outbound/mq"
	"github.com/shandysiswandi/queuesend/internal/sender/outbound/source"
	"github.com/shandysiswandi/queuesend/internal/sender/usecase"
)

type messageSource interface {
	GetMessage(ctx context.Context, name string) (*entity.Message, error)
	Location(name string) string
}

type Dependency struct {
	// Storage selects the object store source. Nil reads from LocalDir.
	Storage  storage.Storage
	LocalDir string
	Bucket   string
	Prefix   string

	Opener           mq.Opener                  `validate:"required"`
	Driver           string                     `validate:"required"`
	DefaultSessionID string                     `validate:"max=128"`
	Instrument       instrument.Instrumentation `validate:"required"`
	UUID             uid.StringID               `validate:"required"`
	Clock            clock.Clocker              `validate:"required"`
	Validator        validator.Validator        `validate:"required"`
}

func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	var src messageSource
	if dep.Storage != nil {
		src = source.NewObject(dep.Storage, dep.Bucket, dep.Prefix, dep.Instrument)
	} else {
		src = source.NewLocal(dep.LocalDir, dep.Instrument)
	}

	return usecase.New(usecase.Dependency{
		RepoSource:       src,
		RepoMessaging:    mq.NewMessaging(dep.Opener, dep.Driver, dep.Instrument),
		Validator:        dep.Validator,
		UUID:             dep.UUID,
		Clock:            dep.Clock,
		Instrument:       dep.Instrument,
		DefaultSessionID: dep.DefaultSessionID,
	}), nil
}
