package activity_test

import (
	"testing"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestHash_KnownValues(t *testing.T) {
	o := activity.Original{
		Date:         "15/02/2026",
		Collaborator: "Mario Rossi",
		Description:  "Analisi requisiti",
		Amount:       450,
	}
	require.Equal(t, "act_d7789f", activity.Hash(o))

	o.Amount = 450.5
	require.Equal(t, "act_tb692e", activity.Hash(o))

	require.Equal(t, "act_29tbo", activity.Hash(activity.Original{}))
}

func TestHash_IgnoresNonIdentityFields(t *testing.T) {
	base := activity.Original{
		Date:         "03/03/2026",
		Collaborator: "Anna",
		Description:  "Workshop",
		Amount:       300,
	}
	want := activity.Hash(base)

	other := base
	other.Client = "ACME"
	other.Task = "Onboarding"
	other.ReasonCode = "C01"
	other.Duration = "4:30"
	require.Equal(t, want, activity.Hash(other))

	changed := base
	changed.Description = "Workshop 2"
	require.NotEqual(t, want, activity.Hash(changed))
}
