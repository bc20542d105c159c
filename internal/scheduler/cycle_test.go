package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func TestDetectCycle_AcyclicGraph(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
		{ID: 3, Duration: 2, Dependencies: []int64{1, 2}},
	}
	assert.False(t, DetectCycle(jobs))
}

func TestDetectCycle_SelfDependency(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4, Dependencies: []int64{1}},
	}
	assert.True(t, DetectCycle(jobs))
}

func TestDetectCycle_TwoNodeCycle(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4, Dependencies: []int64{2}},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
	}
	assert.True(t, DetectCycle(jobs))
}

func TestDetectCycle_LongCycle(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 1, Dependencies: []int64{4}},
		{ID: 2, Duration: 1, Dependencies: []int64{1}},
		{ID: 3, Duration: 1, Dependencies: []int64{2}},
		{ID: 4, Duration: 1, Dependencies: []int64{3}},
	}
	assert.True(t, DetectCycle(jobs))
}

func TestDetectCycle_DiamondIsNotCycle(t *testing.T) {
	// 菱形依赖是合法的 DAG
	jobs := []*domain.Job{
		{ID: 1, Duration: 1},
		{ID: 2, Duration: 1, Dependencies: []int64{1}},
		{ID: 3, Duration: 1, Dependencies: []int64{1}},
		{ID: 4, Duration: 1, Dependencies: []int64{2, 3}},
	}
	assert.False(t, DetectCycle(jobs))
}

func TestDetectCycle_UnknownDependencyIgnored(t *testing.T) {
	// 指向未知任务的依赖由输入校验负责，这里不视为环
	jobs := []*domain.Job{
		{ID: 1, Duration: 1, Dependencies: []int64{99}},
	}
	assert.False(t, DetectCycle(jobs))
}
