package activity_test

import (
	"testing"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

// withDays builds activities whose computed day-equivalents equal days under rateBilling.
func withDays(days ...float64) []*activity.Activity {
	out := make([]*activity.Activity, 0, len(days))
	for i, d := range days {
		o := activity.Original{Date: "01/02/2026", Description: string(rune('a' + i)), Amount: d * rateBilling.DailyRate}
		a := activity.FromRecord(activity.Hash(o), activity.Record{Original: o}, rateBilling)
		out = append(out, &a)
	}
	return out
}

func TestApplyRounding_HitsTargetExactly(t *testing.T) {
	sel := withDays(2, 3, 5)
	out, err := activity.ApplyRounding(sel, 12, rateBilling)
	require.NoError(t, err)
	require.Equal(t, 3, out.Affected)
	require.InDelta(t, 10, out.OldTotal, 1e-9)

	require.InDelta(t, 2.4, sel[0].DayEquivalents, 1e-9)
	require.InDelta(t, 3.6, sel[1].DayEquivalents, 1e-9)
	require.InDelta(t, 6.0, sel[2].DayEquivalents, 1e-9)
	require.InDelta(t, 12, activity.Total(sel), 1e-12)

	for _, a := range sel {
		require.True(t, a.IsModified)
		require.InDelta(t, a.DayEquivalents*rateBilling.HoursPerDay, a.Hours, 1e-9)
		require.InDelta(t, a.DayEquivalents*rateBilling.DailyRate, a.BillableAmount, 1e-9)
	}
	require.InDelta(t, 2, sel[0].Reference.DayEquivalents, 1e-9)
}

func TestApplyRounding_Rejections(t *testing.T) {
	_, err := activity.ApplyRounding(nil, 5, rateBilling)
	require.ErrorIs(t, err, activity.ErrEmptySelection)

	zero := withDays(0, 0)
	_, err = activity.ApplyRounding(zero, 5, rateBilling)
	require.ErrorIs(t, err, activity.ErrZeroTotal)
	require.False(t, zero[0].IsModified)
}

func TestDistributeUniform(t *testing.T) {
	sel := withDays(0.2, 4, 1)
	out, err := activity.DistributeUniform(sel, 3, rateBilling)
	require.NoError(t, err)
	require.Equal(t, 3, out.Affected)
	for _, a := range sel {
		require.InDelta(t, 1, a.DayEquivalents, 1e-9)
		require.True(t, a.IsModified)
	}

	_, err = activity.DistributeUniform(nil, 3, rateBilling)
	require.ErrorIs(t, err, activity.ErrEmptySelection)
}

func TestRedistributeExcess_Conservation(t *testing.T) {
	sel := withDays(2.5, 0.5, 1.0)
	out, err := activity.RedistributeExcess(sel, rateBilling)
	require.NoError(t, err)

	require.InDelta(t, 1.0, sel[0].DayEquivalents, 1e-9)
	// Recipients keep their 1:2 ratio and absorb the 1.5 surplus.
	require.InDelta(t, 3.0, sel[1].DayEquivalents+sel[2].DayEquivalents, 1e-9)
	require.InDelta(t, 1.0, sel[1].DayEquivalents, 1e-9)
	require.InDelta(t, 2.0, sel[2].DayEquivalents, 1e-9)
	require.InDelta(t, out.OldTotal, out.NewTotal, 1e-9)
}

func TestRedistributeExcess_ZeroRecipientsSplitEvenly(t *testing.T) {
	sel := withDays(3, 0, 0)
	_, err := activity.RedistributeExcess(sel, rateBilling)
	require.NoError(t, err)
	require.InDelta(t, 1, sel[0].DayEquivalents, 1e-9)
	require.InDelta(t, 1, sel[1].DayEquivalents, 1e-9)
	require.InDelta(t, 1, sel[2].DayEquivalents, 1e-9)
}

func TestRedistributeExcess_Rejections(t *testing.T) {
	onlyExcess := withDays(2, 3)
	_, err := activity.RedistributeExcess(onlyExcess, rateBilling)
	require.ErrorIs(t, err, activity.ErrNoRecipients)
	require.InDelta(t, 2, onlyExcess[0].DayEquivalents, 1e-9)
	require.False(t, onlyExcess[0].IsModified)

	_, err = activity.RedistributeExcess(withDays(0.5, 1), rateBilling)
	require.ErrorIs(t, err, activity.ErrNoExcess)
}
