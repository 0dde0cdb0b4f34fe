package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type SendInput struct {
	FileName  string `validate:"required,localpath"`
	QueueName string `validate:"required,entityname"`
	SessionID string `validate:"max=128"`
}

type SendOutput struct {
	Receipt entity.Receipt
}

// Send reads one message and publishes it to the queue. Nothing is published
// when the input is invalid or the message cannot be read.
func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	in.QueueName = strings.TrimSpace(in.QueueName)
	if in.SessionID == "" {
		in.SessionID = s.defaultSessionID
	}

	span.SetAttributes(
		attribute.String("message.file", in.FileName),
		attribute.String("messaging.destination.name", in.QueueName),
	)

	if err := s.validator.Validate(in); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, goerror.NewInvalidInput(err)
	}

	msg, err := s.repoSource.GetMessage(ctx, in.FileName)
	if errors.Is(err, goerror.ErrNotFound) {
		location := s.repoSource.Location(in.FileName)
		slog.WarnContext(ctx, "message file not found", "location", location)
		span.SetStatus(codes.Error, "message not found")
		return nil, goerror.NewNotFound("File not found: " + location)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get message", "file", in.FileName, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, goerror.NewInput(err)
	}

	msg.Name = in.FileName
	msg.SessionID = in.SessionID
	msg.MessageID = s.uuid.Generate()

	receipt, err := s.repoMessaging.Publish(ctx, in.QueueName, *msg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish message", "queue", in.QueueName, "file", in.FileName, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, goerror.NewTransport(err)
	}

	if receipt.SentAt.IsZero() {
		receipt.SentAt = s.clock.Now()
	}

	slog.InfoContext(ctx, "message published",
		"queue", receipt.Queue,
		"message_id", receipt.MessageID,
		"session_id", in.SessionID,
		"size", len(msg.Body),
	)

	return &SendOutput{Receipt: *receipt}, nil
}
