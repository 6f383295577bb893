package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantIDContext(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectedValue string
		expectedError error
	}{
		{
			name: "valid tenant ID",
			setupContext: func() context.Context {
				return WithTenantID(context.Background(), "tenant-1")
			},
			expectedValue: "tenant-1",
			expectedError: nil,
		},
		{
			name: "empty tenant ID",
			setupContext: func() context.Context {
				return WithTenantID(context.Background(), "")
			},
			expectedValue: "",
			expectedError: ErrTenantIDNotFound,
		},
		{
			name:          "missing tenant ID",
			setupContext:  context.Background,
			expectedValue: "",
			expectedError: ErrTenantIDNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := FromContext(tt.setupContext())
			assert.Equal(t, tt.expectedValue, value)
			assert.Equal(t, tt.expectedError, err)
		})
	}
}

func TestMustFromContextPanicsWhenMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustFromContext(context.Background())
	})
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")

	value, err := FromRequestIDContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "req-42", value)

	_, err = FromRequestIDContext(context.Background())
	assert.Equal(t, ErrNoRequestIDInContext, err)
}
