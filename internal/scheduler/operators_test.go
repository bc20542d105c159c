package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func taskSet(ch *Chromosome) map[TaskID]int {
	set := make(map[TaskID]int, len(ch.genes))
	for _, gene := range ch.genes {
		set[gene.task]++
	}
	return set
}

func TestCrossover_ChildrenCoverEveryTaskExactlyOnce(t *testing.T) {
	params := testParameters()
	params.CrossoverRate = 1.0

	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3, Dependencies: []int64{1}},
		{ID: 3, Duration: 5},
		{ID: 4, Duration: 2, Dependencies: []int64{3}},
		{ID: 5, Duration: 6},
		{ID: 6, Duration: 1},
	}
	resources := []*domain.Resource{
		{ID: 1, Capacity: 30},
		{ID: 2, Capacity: 30},
	}
	s := mustScheduler(t, params, jobs, resources)

	p1, err := s.encodeChromosome()
	require.NoError(t, err)
	p2, err := s.encodeChromosome()
	require.NoError(t, err)

	want := taskSet(p1)
	require.Equal(t, want, taskSet(p2))

	for i := 0; i < 20; i++ {
		c1, c2 := s.crossover(p1, p2)
		assert.Equal(t, want, taskSet(c1), "子代 1 的任务集合必须与双亲一致")
		assert.Equal(t, want, taskSet(c2), "子代 2 的任务集合必须与双亲一致")
	}
}

func TestCrossover_BelowRateReturnsClones(t *testing.T) {
	params := testParameters()
	params.CrossoverRate = 0.0

	jobs := []*domain.Job{
		{ID: 1, Duration: 4},
		{ID: 2, Duration: 3},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 10}}
	s := mustScheduler(t, params, jobs, resources)

	p1, err := s.encodeChromosome()
	require.NoError(t, err)
	p2, err := s.encodeChromosome()
	require.NoError(t, err)

	c1, c2 := s.crossover(p1, p2)
	assert.Equal(t, p1.hash(), c1.hash())
	assert.Equal(t, p2.hash(), c2.hash())

	// 拷贝必须是深拷贝，修改子代不能影响双亲
	c1.genes[0].start += 100
	assert.NotEqual(t, p1.genes[0].start, c1.genes[0].start)
}

func TestMutate_ChunkGenesKeepTheirDuration(t *testing.T) {
	params := testParameters()
	params.AllowChunking = true
	params.MutationRate = 1.0

	jobs := []*domain.Job{{ID: 1, Duration: 10}}
	resources := []*domain.Resource{
		{ID: 1, Capacity: 20},
		{ID: 2, Capacity: 20},
	}
	s := mustScheduler(t, params, jobs, resources)

	ch, err := s.encodeChromosome()
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		s.mutate(ch)
		require.True(t, s.validateOffspring(ch), "变异不能破坏分片的时长结构")
	}
}

func TestValidateOffspring(t *testing.T) {
	params := testParameters()
	params.AllowChunking = true

	jobs := []*domain.Job{
		{ID: 1, Duration: 10},
		{ID: 2, Duration: 3},
	}
	resources := []*domain.Resource{{ID: 1, Capacity: 100}}
	s := mustScheduler(t, params, jobs, resources)

	valid := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 4},
		{task: TaskID{JobID: 1, Chunk: 2}, resourceID: 1, start: 4, end: 8},
		{task: TaskID{JobID: 1, Chunk: 3}, resourceID: 1, start: 8, end: 10},
		{task: TaskID{JobID: 2}, resourceID: 1, start: 10, end: 13},
	}}
	assert.True(t, s.validateOffspring(valid))

	// 分片时长与分片公式不符
	badLength := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 1, Chunk: 1}, resourceID: 1, start: 0, end: 5},
	}}
	assert.False(t, s.validateOffspring(badLength))

	// 不需要分片的任务不允许有分片基因
	badChunk := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 2, Chunk: 1}, resourceID: 1, start: 0, end: 3},
	}}
	assert.False(t, s.validateOffspring(badChunk))

	// 整任务基因不受分片校验约束
	wholeJob := &Chromosome{genes: []*Gene{
		{task: TaskID{JobID: 2}, resourceID: 1, start: 0, end: 99},
	}}
	assert.True(t, s.validateOffspring(wholeJob))
}

func TestSelectPopulation_KeepsBestUnconditionally(t *testing.T) {
	params := testParameters()
	params.PopulationSize = 10
	params.SelectionRatio = 0.5

	jobs := []*domain.Job{{ID: 1, Duration: 4}}
	resources := []*domain.Resource{{ID: 1, Capacity: 10}}
	s := mustScheduler(t, params, jobs, resources)

	pop := make([]*Chromosome, 10)
	for i := range pop {
		pop[i] = &Chromosome{
			genes:   []*Gene{{task: TaskID{JobID: 1}, resourceID: 1, start: int64(i), end: int64(i) + 4}},
			fitness: float64(10 - i),
		}
	}

	survivors := s.selectPopulation(pop)
	require.Len(t, survivors, 5)
	assert.Same(t, pop[9], survivors[0], "适应度最低的个体必须无条件进入幸存者")
}
