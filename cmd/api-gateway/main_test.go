package main

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/config"
)

func TestPolicyFromDefaultConfigMatchesDefaultPolicy(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	policy := policyFromConfig(cfg.Scheduler)
	assert.Equal(t, models.DefaultPolicy(), policy)
	require.NoError(t, validator.New().Struct(policy))
}

func TestPolicyFromConfigOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_SPECIALIZATION_STRICTNESS", "major-only")
	t.Setenv("SCHEDULER_STRATEGY", "greedy")
	t.Setenv("SCHEDULER_TIME_LIMIT", "1500ms")
	cfg, err := config.Load()
	require.NoError(t, err)

	policy := policyFromConfig(cfg.Scheduler)
	assert.Equal(t, models.StrictnessMajorOnly, policy.SpecializationStrictness)
	assert.Equal(t, models.StrategyGreedy, policy.Strategy)
	assert.Equal(t, 1500, policy.SolverTimeLimitMs)
}
