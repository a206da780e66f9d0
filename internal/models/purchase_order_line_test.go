package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineStatusOnlyAdvancesForward(t *testing.T) {
	cases := []struct {
		from, to LineStatus
		want     bool
	}{
		{StatusPendingUpload, StatusPendingApproval, true},
		{StatusPendingUpload, StatusDone, true},
		{StatusPendingApproval, StatusDone, true},
		{StatusPendingApproval, StatusPendingApproval, true},
		{StatusPendingApproval, StatusPendingUpload, false},
		{StatusDone, StatusPendingUpload, false},
		{StatusDone, StatusDone, true},
		{StatusDone, StatusPendingApproval, false},
		{StatusPendingUpload, StatusPendingUpload, false},
		{LineStatus("ARCHIVED"), StatusDone, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestLineStatusSubmitted(t *testing.T) {
	assert.False(t, StatusPendingUpload.Submitted())
	assert.True(t, StatusPendingApproval.Submitted())
	assert.True(t, StatusDone.Submitted())
	assert.False(t, LineStatus("").Valid())
}
