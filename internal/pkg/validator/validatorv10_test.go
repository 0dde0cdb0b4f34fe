package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	FileName  string `validate:"required,localpath"`
	QueueName string `validate:"required,entityname"`
	SessionID string `validate:"max=128"`
}

func TestV10Validator_Validate(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     sample
		fields map[string]string
	}{
		{
			name: "valid",
			in:   sample{FileName: "order.json", QueueName: "orders", SessionID: "42"},
		},
		{
			name: "nested file and topic path",
			in:   sample{FileName: "2024/order.json", QueueName: "sales/orders-eu.v1", SessionID: ""},
		},
		{
			name: "missing file",
			in:   sample{QueueName: "orders"},
			fields: map[string]string{
				"file_name": "FileName is a required field",
			},
		},
		{
			name: "escaping path",
			in:   sample{FileName: "../secrets.json", QueueName: "orders"},
			fields: map[string]string{
				"file_name": "FileName must be a relative path inside the messages directory",
			},
		},
		{
			name: "bad queue",
			in:   sample{FileName: "a.json", QueueName: "-orders q"},
			fields: map[string]string{
				"queue_name": "QueueName must be a valid queue name",
			},
		},
		{
			name: "empty queue",
			in:   sample{FileName: "a.json"},
			fields: map[string]string{
				"queue_name": "QueueName is a required field",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Values())
			assert.Contains(t, verr.Error(), "{")
		})
	}
}

func TestV10ValidationError_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "validation error", V10ValidationError{}.Error())
}
