package activity_test

import (
	"testing"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"2:30":    2.5,
		"0:45":    0.75,
		"8":       8,
		"2.5":     2.5,
		"2,5":     2.5,
		" 1:15 ":  1.25,
		"abc":     0,
		"-1:30":   -0.5,
		"-0:30":   0.5,
		"1:-30":   0.5,
		"2:30:15": 2.5,
		"7,5h":    7.5,
		"7.5 ore": 7.5,
		"-2,5":    -2.5,
		"+3":      3,
		".5":      0.5,
		"1e1":     10,
		"1e":      1,
		"0x10:00": 16,
		"h7":      0,
		"-":       0,
		"-0":      0,
	}
	for in, want := range cases {
		require.InDelta(t, want, activity.ParseDuration(in), 1e-9, "input %q", in)
	}
}

func TestCompute_RateMode(t *testing.T) {
	b := activity.Billing{DailyRate: 400, HoursPerDay: 8, Mode: activity.ModeRate}
	res := activity.Compute(activity.Original{Amount: 600}, b)
	require.InDelta(t, 1.5, res.DayEquivalents, 1e-9)
	require.InDelta(t, 12, res.Hours, 1e-9)
	require.False(t, res.RateError)

	// Round trip: day-equivalents times rate gives the original amount back.
	for _, amount := range []float64{0, 1, 333.33, 1234.56, 99999.99} {
		r := activity.Compute(activity.Original{Amount: amount}, b)
		require.InDelta(t, amount, r.DayEquivalents*b.DailyRate, 1e-9)
	}
}

func TestCompute_EmptyModeDefaultsToRate(t *testing.T) {
	b := activity.Billing{DailyRate: 500, HoursPerDay: 8}
	res := activity.Compute(activity.Original{Amount: 250, Duration: "8:00"}, b)
	require.InDelta(t, 0.5, res.DayEquivalents, 1e-9)
}

func TestCompute_HoursMode(t *testing.T) {
	b := activity.Billing{DailyRate: 400, HoursPerDay: 8, Mode: activity.ModeHours}
	res := activity.Compute(activity.Original{Duration: "6:00", Amount: 9999}, b)
	require.InDelta(t, 0.75, res.DayEquivalents, 1e-9)
	require.InDelta(t, 6, res.Hours, 1e-9)

	b.HoursPerDay = 0
	res = activity.Compute(activity.Original{Duration: "4"}, b)
	require.InDelta(t, 0.5, res.DayEquivalents, 1e-9)
}

func TestCompute_CollaboratorRateErrorIsContained(t *testing.T) {
	b := activity.Billing{
		DailyRate:         400,
		HoursPerDay:       8,
		Mode:              activity.ModeCollaboratorRate,
		CollaboratorRates: map[string]float64{"Anna": 500, "Luca": 0},
	}

	rated := activity.FromRecord("a", activity.Record{Original: activity.Original{Collaborator: "Anna", Amount: 1000}}, b)
	require.InDelta(t, 2, rated.DayEquivalents, 1e-9)
	require.InDelta(t, 1000, rated.BillableAmount, 1e-9)
	require.False(t, rated.HasRateError)

	missing := activity.FromRecord("b", activity.Record{Original: activity.Original{Collaborator: "Piero", Amount: 1000}}, b)
	require.Zero(t, missing.DayEquivalents)
	require.Zero(t, missing.Hours)
	require.True(t, missing.HasRateError)

	zero := activity.FromRecord("c", activity.Record{Original: activity.Original{Collaborator: "Luca", Amount: 1000}}, b)
	require.True(t, zero.HasRateError)
}

func TestResolveRate(t *testing.T) {
	b := activity.Billing{
		DailyRate:         400,
		Mode:              activity.ModeCollaboratorRate,
		CollaboratorRates: map[string]float64{"Anna": 550},
	}
	anna := activity.FromRecord("a", activity.Record{Original: activity.Original{Collaborator: "Anna"}}, b)
	other := activity.FromRecord("b", activity.Record{Original: activity.Original{Collaborator: "Bruno"}}, b)
	require.Equal(t, 550.0, activity.ResolveRate(&anna, b))
	require.Equal(t, 400.0, activity.ResolveRate(&other, b))

	b.Mode = activity.ModeRate
	require.Equal(t, 400.0, activity.ResolveRate(&anna, b))
}

func TestRecalculateAll_PreservesDayOverride(t *testing.T) {
	b := activity.Billing{DailyRate: 400, HoursPerDay: 8, Mode: activity.ModeRate}
	acts := []activity.Activity{
		activity.FromRecord("a", activity.Record{Original: activity.Original{Amount: 800, Duration: "4:00"}}, b),
		activity.FromRecord("b", activity.Record{Original: activity.Original{Amount: 400, Duration: "8:00"}}, b),
	}
	require.NoError(t, acts[0].SetDayEquivalents(3, b))

	next := activity.Billing{DailyRate: 500, HoursPerDay: 8, Mode: activity.ModeHours}
	activity.RecalculateAll(acts, next)

	require.InDelta(t, 3, acts[0].DayEquivalents, 1e-9)
	require.InDelta(t, 24, acts[0].Hours, 1e-9)
	require.InDelta(t, 1500, acts[0].BillableAmount, 1e-9)
	require.NotNil(t, acts[0].Reference)
	require.InDelta(t, 0.5, acts[0].Reference.DayEquivalents, 1e-9)

	require.InDelta(t, 1, acts[1].DayEquivalents, 1e-9)
	require.InDelta(t, 500, acts[1].BillableAmount, 1e-9)
	require.False(t, acts[1].IsModified)
}
