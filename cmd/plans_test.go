package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retaillab/markdown-cli/internal/model"
)

func TestFormatPlansList(t *testing.T) {
	plans := []model.Plan{
		{
			ID:        "abc-123",
			Discounts: []float64{0.1, 0.2, 0.3, 0.4},
			Revenue:   123456.78,
			Status:    model.PlanStatusConverged,
			CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatPlansList(&buf, plans)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "converged")
	assert.Contains(t, out, "123456.78")
	assert.Contains(t, out, "2026-03-14 09:30")
}

func TestPlansListCmd_EmptyStore(t *testing.T) {
	testConfig(t)

	plansListCmd.SetContext(context.Background())
	require.NoError(t, plansListCmd.RunE(plansListCmd, nil))
}

func TestPlansShowCmd_Missing(t *testing.T) {
	testConfig(t)

	plansShowCmd.SetContext(context.Background())
	err := plansShowCmd.RunE(plansShowCmd, []string{"no-such-id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPlansRoundTrip(t *testing.T) {
	testConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)

	created, err := st.CreatePlan(context.Background(), model.Plan{
		Inputs:    model.ScenarioInputs{Price: 606, Horizon: 4},
		Discounts: []float64{0.1, 0.2, 0.3, 0.4},
		Revenue:   9000,
		Status:    model.PlanStatusConverged,
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	plansShowCmd.SetContext(context.Background())
	require.NoError(t, plansShowCmd.RunE(plansShowCmd, []string{created.ID}))

	plansListCmd.SetContext(context.Background())
	require.NoError(t, plansListCmd.RunE(plansListCmd, nil))
}
