package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultDir is the messages directory, relative to the working directory.
const DefaultDir = "messages"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM drops a leading UTF-8 byte order mark; the rest of body is untouched.
func stripBOM(body []byte) []byte {
	return bytes.TrimPrefix(body, utf8BOM)
}

// Local reads messages from a directory on disk.
type Local struct {
	dir string
	ins instrument.Instrumentation
}

func NewLocal(dir string, ins instrument.Instrumentation) *Local {
	if dir == "" {
		dir = DefaultDir
	}
	return &Local{dir: dir, ins: ins}
}

func (l *Local) Location(name string) string {
	return filepath.Join(l.dir, name)
}

func (l *Local) GetMessage(ctx context.Context, name string) (*entity.Message, error) {
	ctx, span := l.ins.Tracer("sender.outbound.source").Start(ctx, "Local.GetMessage")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.Location(name)
	span.SetAttributes(attribute.String("file.path", path))

	// a directory is reported like a missing file
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", goerror.ErrNotFound, path)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// #nosec G304 -- path is validated as local to the messages directory.
	body, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &entity.Message{Name: name, Body: stripBOM(body)}, nil
}
