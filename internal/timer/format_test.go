package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{-5, "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.seconds), "FormatTime(%d)", tt.seconds)
	}
}

func TestTypicalDuration(t *testing.T) {
	d, ok := TypicalDuration("Raid")
	assert.True(t, ok)
	assert.Equal(t, 3600, d)

	d, ok = TypicalDuration("Épreuve d'Osiris")
	assert.True(t, ok)
	assert.Equal(t, 420, d)

	_, ok = TypicalDuration("Pêche")
	assert.False(t, ok)
}
