package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperTransitionTable(t *testing.T) {
	cases := []struct {
		from    PaperStatus
		action  PaperAction
		to      PaperStatus
		allowed bool
	}{
		{PaperStatusDraft, PaperActionSubmit, PaperStatusSubmitted, true},
		{PaperStatusRejected, PaperActionSubmit, PaperStatusSubmitted, true},
		{PaperStatusSubmitted, PaperActionApprove, PaperStatusApproved, true},
		{PaperStatusSubmitted, PaperActionReject, PaperStatusRejected, true},
		{PaperStatusApproved, PaperActionLock, PaperStatusLocked, true},

		{PaperStatusDraft, PaperActionApprove, "", false},
		{PaperStatusDraft, PaperActionLock, "", false},
		{PaperStatusSubmitted, PaperActionSubmit, "", false},
		{PaperStatusApproved, PaperActionSubmit, "", false},
		{PaperStatusApproved, PaperActionReject, "", false},
		{PaperStatusLocked, PaperActionSubmit, "", false},
		{PaperStatusLocked, PaperActionApprove, "", false},
		{PaperStatusLocked, PaperActionLock, "", false},
	}
	for _, tc := range cases {
		to, allowed := PaperTransition(tc.from, tc.action)
		assert.Equal(t, tc.allowed, allowed, "%s + %s", tc.from, tc.action)
		if tc.allowed {
			assert.Equal(t, tc.to, to, "%s + %s", tc.from, tc.action)
		}
	}
}

func TestPaperStatusEditable(t *testing.T) {
	assert.True(t, PaperStatusDraft.Editable())
	assert.True(t, PaperStatusRejected.Editable())
	assert.False(t, PaperStatusSubmitted.Editable())
	assert.False(t, PaperStatusApproved.Editable())
	assert.False(t, PaperStatusLocked.Editable())
}

func TestMarkTransitionIsStrictlyLinear(t *testing.T) {
	to, ok := MarkTransition(MarkStatusDraft, MarkActionSubmit)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusSubmitted, to)

	to, ok = MarkTransition(MarkStatusSubmitted, MarkActionVerify)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusVerified, to)

	to, ok = MarkTransition(MarkStatusVerified, MarkActionLock)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusLocked, to)

	// No skips, no backward edges, nothing out of LOCKED.
	_, ok = MarkTransition(MarkStatusDraft, MarkActionVerify)
	assert.False(t, ok)
	_, ok = MarkTransition(MarkStatusDraft, MarkActionLock)
	assert.False(t, ok)
	_, ok = MarkTransition(MarkStatusSubmitted, MarkActionSubmit)
	assert.False(t, ok)
	_, ok = MarkTransition(MarkStatusVerified, MarkActionSubmit)
	assert.False(t, ok)
	_, ok = MarkTransition(MarkStatusLocked, MarkActionSubmit)
	assert.False(t, ok)
	_, ok = MarkTransition(MarkStatusLocked, MarkActionLock)
	assert.False(t, ok)
}

func TestMarkActionSource(t *testing.T) {
	source, ok := MarkActionSource(MarkActionSubmit)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusDraft, source)

	source, ok = MarkActionSource(MarkActionVerify)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusSubmitted, source)

	source, ok = MarkActionSource(MarkActionLock)
	assert.True(t, ok)
	assert.Equal(t, MarkStatusVerified, source)

	_, ok = MarkActionSource(MarkAction("BOGUS"))
	assert.False(t, ok)
}

func TestGradingRuleCoversInclusiveBounds(t *testing.T) {
	rule := GradingRule{MinPercentage: 33, MaxPercentage: 59.99}
	assert.True(t, rule.Covers(33))
	assert.True(t, rule.Covers(59.99))
	assert.False(t, rule.Covers(32.99))
	assert.False(t, rule.Covers(60))
}
