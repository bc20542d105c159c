package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomJobs_DependenciesPointBackwards(t *testing.T) {
	for i := 0; i < 20; i++ {
		jobs := GenerateRandomJobs(10)
		require.Len(t, jobs, 10)

		for _, job := range jobs {
			assert.Positive(t, job.Duration)
			for _, dep := range job.Dependencies {
				assert.Less(t, dep, job.ID, "依赖只能指向编号更小的任务")
			}
		}
	}
}

func TestGenerateRandomResources_CoversTotalDuration(t *testing.T) {
	for i := 0; i < 20; i++ {
		resources := GenerateRandomResources(3, 1000)

		var total int64
		for _, resource := range resources {
			total += resource.Capacity
		}
		assert.GreaterOrEqual(t, total, int64(1000))
	}
}

func TestGenerateRandomSchedulePlan_PassesValidation(t *testing.T) {
	for i := 0; i < 20; i++ {
		plan := GenerateRandomSchedulePlan()
		assert.NoError(t, ValidateSchedulePlanInput(plan.Jobs, plan.Resources))
	}
}

func TestGenerateRandomPassword_Length(t *testing.T) {
	assert.Len(t, GenerateRandomPassword(12), 12)
	assert.Len(t, GenerateRandomPassword(1), 1)
}
