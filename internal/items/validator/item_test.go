package validator

import (
	"errors"
	"testing"
	"time"

	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *ItemValidator {
	return NewItemValidator(logger.Discard())
}

func TestValidateCreate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		req       model.CreateItemRequest
		wantField string
	}{
		{
			name: "valid",
			req:  model.CreateItemRequest{Name: "Drill", SharedWith: []string{"alice@example.com"}},
		},
		{
			name:      "missing name",
			req:       model.CreateItemRequest{},
			wantField: "Name",
		},
		{
			name:      "bad share address",
			req:       model.CreateItemRequest{Name: "Drill", SharedWith: []string{"not-an-email"}},
			wantField: "SharedWith[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCreate(&tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var errs ValidationErrors
			require.True(t, errors.As(err, &errs))
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}

func TestValidateScheduled(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	assert.NoError(t, v.ValidateScheduled(&model.ScheduledReservationRequest{Start: start, End: start.Add(time.Hour)}))

	err := v.ValidateScheduled(&model.ScheduledReservationRequest{Start: start, End: start})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "End must be after Start", errs[0].Message)

	err = v.ValidateScheduled(&model.ScheduledReservationRequest{End: start})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "Start", errs[0].Field)
}

func TestValidateIdentityAndID(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.ValidateIdentity("alice@example.com"))
	assert.EqualError(t, v.ValidateIdentity("alice"), "validation failed: 1 error(s): [Identity: Identity must be a valid email address]")

	assert.NoError(t, v.ValidateID("3f2b8c1e-9d4a-4b7e-8f6a-2c1d0e9b8a7f"))
	err := v.ValidateID("")
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "ID is required", errs[0].Message)
}
