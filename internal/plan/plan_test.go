package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitFor(t *testing.T) {
	assert.Equal(t, 1, LimitFor(PlanFree))
	assert.Equal(t, 5, LimitFor(PlanOptimal))
	assert.Equal(t, 20, LimitFor(PlanPremium))
	assert.Equal(t, Unlimited, LimitFor(PlanPartner))
}

func TestLimitFor_UnknownFailsClosed(t *testing.T) {
	// Unknown plans must never default to unlimited
	assert.Equal(t, 1, LimitFor(Plan("enterprise")))
	assert.Equal(t, 1, LimitFor(Plan("")))
}

func TestIsUnlimited(t *testing.T) {
	assert.True(t, IsUnlimited(LimitFor(PlanPartner)))
	assert.False(t, IsUnlimited(LimitFor(PlanPremium)))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(PlanFree))
	assert.True(t, Valid(PlanOptimal))
	assert.True(t, Valid(PlanPremium))
	assert.True(t, Valid(PlanPartner))
	assert.False(t, Valid(Plan("starter")))
}
