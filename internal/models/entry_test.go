package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyInputClearsPreviousShape(t *testing.T) {
	entry := &Entry{}

	single := CalculationInput{
		Role:  "warehouse_helper",
		Shift: "Morning",
		Activity: &ActivityInput{
			Name:             "Paletização",
			QuantityProduced: 100,
			HoursWorked:      8,
		},
	}
	require.NoError(t, entry.ApplyInput(single))
	require.NotNil(t, entry.ActivityName)
	assert.Equal(t, "Paletização", *entry.ActivityName)
	assert.Nil(t, entry.Activities)

	multi := CalculationInput{
		Role:  "warehouse_helper",
		Shift: "Morning",
		Activities: []ActivityInput{
			{Name: "Picking", QuantityProduced: 50, HoursWorked: 4},
		},
	}
	require.NoError(t, entry.ApplyInput(multi))
	assert.Nil(t, entry.ActivityName)
	assert.Nil(t, entry.QuantityProduced)
	assert.NotEmpty(t, entry.Activities)
}

func TestApplyResultCopiesBreakdown(t *testing.T) {
	gross := 20.0
	rate := 12.5
	tier := "Advanced"
	result := &CalculationResult{
		ActivitiesSubtotal: 10,
		KPIBonus:           5,
		TotalPayout:        15,
		GrossActivityValue: &gross,
		AchievedRate:       &rate,
		TierReached:        &tier,
		AchievedKPINames:   StringList{"Zero Faltas"},
	}

	entry := &Entry{}
	entry.ApplyResult(result)

	assert.InDelta(t, 10.0, entry.ActivitiesSubtotal, 1e-9)
	assert.InDelta(t, 5.0, entry.KPIBonus, 1e-9)
	assert.InDelta(t, 15.0, entry.TotalPayout, 1e-9)
	require.NotNil(t, entry.TierReached)
	assert.Equal(t, "Advanced", *entry.TierReached)
	assert.Equal(t, StringList{"Zero Faltas"}, entry.AchievedKPINames)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}
