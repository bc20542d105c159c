package scheduler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func testParameters() *Parameters {
	return &Parameters{
		PopulationSize: 10,
		MutationRate:   0.1,
		CrossoverRate:  0.8,
		SelectionRatio: 0.5,
		TournamentSize: 3,
		Quantum:        4,
		AllowChunking:  false,
		Patience:       5,
	}
}

func mustScheduler(t *testing.T, params *Parameters, jobs []*domain.Job, resources []*domain.Resource) *Scheduler {
	t.Helper()
	s, err := New(params, jobs, resources, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	return s
}

func TestEvaluate_FeasibleSchedule(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 4, end: 7},
	}}

	fitness := s.evaluate(ch)
	require.False(t, math.IsInf(fitness, 1))

	// makespan 7 + 关键任务惩罚 0.1*3 + 失衡惩罚 |7-7/100|*0.1
	assert.InDelta(t, 7+0.3+(7-0.07)*0.1, fitness, 1e-9)
	assert.GreaterOrEqual(t, fitness, float64(ch.Makespan()))
}

func TestEvaluate_DependencyViolationPenalty(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	// 任务 2 比依赖的完成时间早开始了 2 个单位
	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 2, end: 5},
	}}

	fitness := s.evaluate(ch)
	require.False(t, math.IsInf(fitness, 1))

	// 钳制后的开始时间是 4，与任务 1 不再重叠，惩罚只来自依赖违规
	assert.InDelta(t, 5+200+0.3+(7-0.07)*0.1, fitness, 1e-9)
}

func TestEvaluate_OverlapPenalty(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	// 两个无依赖的任务在同一资源上重叠了 [2, 4)
	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 2, end: 5},
	}}

	fitness := s.evaluate(ch)
	require.False(t, math.IsInf(fitness, 1))
	assert.InDelta(t, 5+2*100+(7-0.07)*0.1, fitness, 1e-9)
}

func TestEvaluate_IdlePenalty(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	// 任务 1 从 2 开始，任务 2 在 6 结束后隔 3 个单位才开始
	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1}, resourceID: 1, start: 2, end: 6},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 9, end: 12},
	}}

	fitness := s.evaluate(ch)
	require.False(t, math.IsInf(fitness, 1))
	assert.InDelta(t, 12+(2+3)*0.2+(7-0.07)*0.1, fitness, 1e-9)
}

func TestEvaluate_InfeasibleCases(t *testing.T) {
	jobs := []*domain.Job{{ID: 1, Duration: 4}}
	resources := []*domain.Resource{{ID: 1, Capacity: 5}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	cases := map[string]*Chromosome{
		"空染色体": {},
		"非正时长": {genes: []*Gene{
			{task: TaskID{JobID: 1}, resourceID: 1, start: 4, end: 4},
		}},
		"未知任务": {genes: []*Gene{
			{task: TaskID{JobID: 99}, resourceID: 1, start: 0, end: 4},
		}},
		"未知资源": {genes: []*Gene{
			{task: TaskID{JobID: 1}, resourceID: 99, start: 0, end: 4},
		}},
		"不允许分片时出现分片基因": {genes: []*Gene{
			{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 4},
		}},
	}

	for name, ch := range cases {
		assert.True(t, math.IsInf(s.evaluate(ch), 1), name)
	}
}

func TestEvaluate_CapacityExceededIsInfeasible(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 5}}
	s := mustScheduler(t, testParameters(), jobs, resources)

	// 两个任务共占用 7，超过了容量 5，即使时间上不重叠也不可行
	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 4, end: 7},
	}}

	assert.True(t, math.IsInf(s.evaluate(ch), 1))
}

func TestEvaluate_ChunkStructure(t *testing.T) {
	params := testParameters()
	params.AllowChunking = true

	jobs := []*domain.Job{{ID: 1, Duration: 10}}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, params, jobs, resources)

	valid := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 1, Chunk: 2}, resourceID: 1, start: 4, end: 8},
		{task: TaskID{JobID: 1, Chunk: 3}, resourceID: 1, start: 8, end: 10},
	}}
	require.False(t, math.IsInf(s.evaluate(valid), 1))

	// 最后一个分片的时长必须是余数 2
	wrongLength := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 1, Chunk: 2}, resourceID: 1, start: 4, end: 8},
		{task: TaskID{JobID: 1, Chunk: 3}, resourceID: 1, start: 8, end: 12},
	}}
	assert.True(t, math.IsInf(s.evaluate(wrongLength), 1))

	// 分片编号不能超过分片数量
	extraChunk := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 4}, resourceID: 1, start: 0, end: 4},
	}}
	assert.True(t, math.IsInf(s.evaluate(extraChunk), 1))
}

func TestEvaluate_ChunkOrderViolationPenalty(t *testing.T) {
	params := testParameters()
	params.AllowChunking = true

	jobs := []*domain.Job{{ID: 1, Duration: 10}}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, params, jobs, resources)

	// 分片 2 比分片 1 的完成时间早开始了 2 个单位
	ch := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 1, Chunk: 2}, resourceID: 1, start: 2, end: 6},
		{task: TaskID{JobID: 1, Chunk: 3}, resourceID: 1, start: 6, end: 8},
	}}

	fitness := s.evaluate(ch)
	require.False(t, math.IsInf(fitness, 1))
	assert.GreaterOrEqual(t, fitness, 200.0)
}
