package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shandysiswandi/queuesend/internal/pkg/clock"
	"github.com/shandysiswandi/queuesend/internal/pkg/goerror"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/validator"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	messages map[string]string
	err      error
	reads    int
}

func (f *fakeSource) GetMessage(_ context.Context, name string) (*entity.Message, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.messages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", goerror.ErrNotFound, f.Location(name))
	}
	return &entity.Message{Name: name, Body: []byte(body)}, nil
}

func (f *fakeSource) Location(name string) string { return "messages/" + name }

type fakeMessaging struct {
	queue  string
	msg    entity.Message
	err    error
	sentAt time.Time
	calls  int
}

func (f *fakeMessaging) Publish(_ context.Context, queue string, msg entity.Message) (*entity.Receipt, error) {
	f.calls++
	f.queue = queue
	f.msg = msg
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Receipt{Queue: queue, MessageID: msg.MessageID, SentAt: f.sentAt}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

var sentAt = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestUsecase(t *testing.T, src *fakeSource, mq *fakeMessaging, sessionID string) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return New(Dependency{
		RepoSource:       src,
		RepoMessaging:    mq,
		Validator:        v,
		UUID:             fixedID("0190c1f2-0000-7000-8000-000000000001"),
		Clock:            clock.Fixed(sentAt),
		Instrument:       instrument.NewNoop(),
		DefaultSessionID: sessionID,
	})
}

func TestUsecase_Send(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: map[string]string{"order.json": `{"id":1}`}}
	mq := &fakeMessaging{}
	uc := newTestUsecase(t, src, mq, "")

	out, err := uc.Send(context.Background(), SendInput{FileName: "order.json", QueueName: " orders "})
	require.NoError(t, err)

	assert.Equal(t, entity.Receipt{
		Queue:     "orders",
		MessageID: "0190c1f2-0000-7000-8000-000000000001",
		SentAt:    sentAt,
	}, out.Receipt)

	assert.Equal(t, "orders", mq.queue)
	assert.Equal(t, []byte(`{"id":1}`), mq.msg.Body)
	assert.Equal(t, "order.json", mq.msg.Name)
	assert.Equal(t, entity.DefaultSessionID, mq.msg.SessionID)
}

func TestUsecase_Send_FileNameKeptAsGiven(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: map[string]string{" sp.json": "{}"}}
	mq := &fakeMessaging{}

	_, err := newTestUsecase(t, src, mq, "").Send(context.Background(),
		SendInput{FileName: " sp.json", QueueName: "orders"})
	require.NoError(t, err)
	assert.Equal(t, " sp.json", mq.msg.Name)

	_, err = newTestUsecase(t, src, &fakeMessaging{}, "").Send(context.Background(),
		SendInput{FileName: "sp.json", QueueName: "orders"})
	ge, ok := goerror.As(err)
	require.True(t, ok)
	assert.Equal(t, "File not found: messages/sp.json", ge.Error())
}

func TestUsecase_Send_BrokerTimestamp(t *testing.T) {
	t.Parallel()

	brokerAt := sentAt.Add(3 * time.Second)
	src := &fakeSource{messages: map[string]string{"a.json": "{}"}}
	mq := &fakeMessaging{sentAt: brokerAt}

	out, err := newTestUsecase(t, src, mq, "").Send(context.Background(),
		SendInput{FileName: "a.json", QueueName: "orders"})
	require.NoError(t, err)
	assert.Equal(t, brokerAt, out.Receipt.SentAt)
}

func TestUsecase_Send_SessionID(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: map[string]string{"a.json": "{}"}}

	mq := &fakeMessaging{}
	_, err := newTestUsecase(t, src, mq, "from-settings").Send(context.Background(),
		SendInput{FileName: "a.json", QueueName: "orders"})
	require.NoError(t, err)
	assert.Equal(t, "from-settings", mq.msg.SessionID)

	mq = &fakeMessaging{}
	_, err = newTestUsecase(t, src, mq, "from-settings").Send(context.Background(),
		SendInput{FileName: "a.json", QueueName: "orders", SessionID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "7", mq.msg.SessionID)
}

func TestUsecase_Send_Errors(t *testing.T) {
	t.Parallel()

	brokerErr := errors.New("connect: dial tcp: connection refused")
	readErr := errors.New("permission denied")

	tests := []struct {
		name      string
		in        SendInput
		src       *fakeSource
		mq        *fakeMessaging
		wantType  goerror.Type
		wantCode  goerror.Code
		wantMsg   string
		wantReads int
		wantCalls int
	}{
		{
			name:     "missing queue",
			in:       SendInput{FileName: "a.json"},
			src:      &fakeSource{},
			mq:       &fakeMessaging{},
			wantType: goerror.TypeInput,
			wantCode: goerror.CodeInvalidInput,
			wantMsg:  "Invalid input: QueueName is a required field",
		},
		{
			name:     "escaping file name",
			in:       SendInput{FileName: "../a.json", QueueName: "orders"},
			src:      &fakeSource{},
			mq:       &fakeMessaging{},
			wantType: goerror.TypeInput,
			wantCode: goerror.CodeInvalidInput,
			wantMsg:  "Invalid input: FileName must be a relative path inside the messages directory",
		},
		{
			name:      "file not found",
			in:        SendInput{FileName: "missing.json", QueueName: "orders"},
			src:       &fakeSource{},
			mq:        &fakeMessaging{},
			wantType:  goerror.TypeInput,
			wantCode:  goerror.CodeNotFound,
			wantMsg:   "File not found: messages/missing.json",
			wantReads: 1,
		},
		{
			name:      "unreadable file",
			in:        SendInput{FileName: "a.json", QueueName: "orders"},
			src:       &fakeSource{err: readErr},
			mq:        &fakeMessaging{},
			wantType:  goerror.TypeInput,
			wantCode:  goerror.CodeInternal,
			wantMsg:   "permission denied",
			wantReads: 1,
		},
		{
			name:      "broker failure",
			in:        SendInput{FileName: "a.json", QueueName: "orders"},
			src:       &fakeSource{messages: map[string]string{"a.json": "{}"}},
			mq:        &fakeMessaging{err: brokerErr},
			wantType:  goerror.TypeTransport,
			wantCode:  goerror.CodeUnavailable,
			wantMsg:   "connect: dial tcp: connection refused",
			wantReads: 1,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := newTestUsecase(t, tt.src, tt.mq, "").Send(context.Background(), tt.in)
			assert.Nil(t, out)

			ge, ok := goerror.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, ge.Type())
			assert.Equal(t, tt.wantCode, ge.Code())
			assert.Equal(t, tt.wantMsg, ge.Error())
			assert.Equal(t, tt.wantReads, tt.src.reads)
			assert.Equal(t, tt.wantCalls, tt.mq.calls)
		})
	}
}
