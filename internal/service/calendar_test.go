package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkingDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.June, 25},      // 30 days, 5 Sundays
		{2025, time.February, 24},  // 28 days, 4 Sundays
		{2024, time.February, 25},  // leap year, 4 Sundays
		{2025, time.March, 26},     // 31 days, 5 Sundays
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WorkingDaysInMonth(tc.year, tc.month), "%d-%s", tc.year, tc.month)
	}
}
