package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundsForDuration(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		minutes int
		want    int
		wantErr bool
	}{
		{minutes: 3, want: 7},
		{minutes: 5, want: 10},
		{minutes: 10, want: 15},
		{minutes: 15, want: 20},
		{minutes: 20, want: 25},
		{minutes: 30, want: 30},
		{minutes: 7, wantErr: true},
		{minutes: 0, wantErr: true},
	}

	for _, tt := range tests {
		rounds, err := p.RoundsForDuration(tt.minutes)
		if tt.wantErr {
			require.Error(t, err, "duration %d", tt.minutes)
			assert.Contains(t, err.Error(), "[3 5 10 15 20 30]")
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, rounds)
	}
}

func TestRequiresCoding(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name string
		role string
		want bool
	}{
		{name: "exact excluded role", role: "frontend developer", want: false},
		{name: "case and hyphen", role: "Front-End Developer", want: false},
		{name: "different suffix", role: "Frontend Engineer", want: false},
		{name: "backend", role: "backend developer", want: true},
		{name: "full stack", role: "full stack developer", want: true},
		{name: "software engineer", role: "Software Engineer", want: true},
		{name: "platform engineer", role: "platform engineer", want: true},
		{name: "empty role", role: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.RequiresCoding(tt.role))
		})
	}
}

func TestRequiresCodingCustomTable(t *testing.T) {
	p := &Policy{NoCodingRoles: []string{"product manager", "designer"}}

	assert.False(t, p.RequiresCoding("Senior Product Manager"))
	assert.False(t, p.RequiresCoding("UX designer"))
	assert.True(t, p.RequiresCoding("data engineer"))
}
