package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/storage"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Object reads messages from a bucket prefix on an object store.
type Object struct {
	storage storage.Storage
	bucket  string
	prefix  string
	ins     instrument.Instrumentation
}

func NewObject(stg storage.Storage, bucket, prefix string, ins instrument.Instrumentation) *Object {
	return &Object{storage: stg, bucket: bucket, prefix: prefix, ins: ins}
}

func (o *Object) key(name string) string {
	return path.Join(o.prefix, filepath.ToSlash(name))
}

func (o *Object) Location(name string) string {
	return o.bucket + "/" + o.key(name)
}

func (o *Object) GetMessage(ctx context.Context, name string) (*entity.Message, error) {
	ctx, span := o.ins.Tracer("sender.outbound.source").Start(ctx, "Object.GetMessage")
	defer span.End()

	key := o.key(name)
	span.SetAttributes(
		attribute.String("storage.bucket", o.bucket),
		attribute.String("storage.key", key),
	)

	rc, info, err := o.storage.GetObject(ctx, o.bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", goerror.ErrNotFound, o.Location(name))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close object reader", "bucket", o.bucket, "key", key, "error", err)
		}
	}()

	body, err := io.ReadAll(rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &entity.Message{Name: name, Body: stripBOM(body), ContentType: info.ContentType}, nil
}
