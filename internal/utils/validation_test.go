package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func TestValidateSchedulePlanInput_Valid(t *testing.T) {
	jobs := []domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
	}
	resources := []domain.Resource{
		{ID: 1, Capacity: 5},
		{ID: 2, Capacity: 5},
	}
	assert.NoError(t, ValidateSchedulePlanInput(jobs, resources))
}

func TestValidateSchedulePlanInput_Invalid(t *testing.T) {
	base := []domain.Job{{ID: 1, Duration: 4}}
	baseResources := []domain.Resource{{ID: 1, Capacity: 10}}

	cases := map[string]struct {
		jobs      []domain.Job
		resources []domain.Resource
	}{
		"没有任务": {nil, baseResources},
		"没有资源": {base, nil},
		"任务时长非正": {
			[]domain.Job{{ID: 1, Duration: 0}},
			baseResources,
		},
		"任务 ID 重复": {
			[]domain.Job{{ID: 1, Duration: 4}, {ID: 1, Duration: 3}},
			baseResources,
		},
		"资源容量为负": {
			base,
			[]domain.Resource{{ID: 1, Capacity: -1}},
		},
		"资源 ID 重复": {
			base,
			[]domain.Resource{{ID: 1, Capacity: 10}, {ID: 1, Capacity: 5}},
		},
		"依赖不存在的任务": {
			[]domain.Job{{ID: 1, Duration: 4, Dependencies: []int64{99}}},
			baseResources,
		},
		"任务依赖自己": {
			[]domain.Job{{ID: 1, Duration: 4, Dependencies: []int64{1}}},
			baseResources,
		},
		"依赖重复": {
			[]domain.Job{
				{ID: 1, Duration: 4},
				{ID: 2, Duration: 3, Dependencies: []int64{1, 1}},
			},
			baseResources,
		},
		"总时长超过总容量": {
			[]domain.Job{{ID: 1, Duration: 20}},
			baseResources,
		},
	}

	for name, tc := range cases {
		assert.Error(t, ValidateSchedulePlanInput(tc.jobs, tc.resources), name)
	}
}
