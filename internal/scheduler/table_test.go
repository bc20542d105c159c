package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func TestBuildScheduleTable(t *testing.T) {
	jobs := []*domain.Job{
		{ID: 1, Name: "下料", Duration: 10},
		{ID: 2, Name: "质检", Duration: 3},
	}
	resources := []*domain.Resource{
		{ID: 1, Name: "一号机", Capacity: 12},
		{ID: 2, Name: "二号机", Capacity: 8},
	}

	ch := NewChromosomeFromGenes([]domain.SchedulingResultGene{
		{JobID: 1, ChunkIndex: 2, ResourceID: 1, StartTime: 4, EndTime: 8},
		{JobID: 1, ChunkIndex: 1, ResourceID: 1, StartTime: 0, EndTime: 4},
		{JobID: 1, ChunkIndex: 3, ResourceID: 2, StartTime: 8, EndTime: 10},
		{JobID: 2, ChunkIndex: 0, ResourceID: 2, StartTime: 0, EndTime: 3},
	})

	table := BuildScheduleTable(ch, jobs, resources)
	require.Len(t, table.Rows, 4)

	// 行按开始时间升序排列
	for i := 1; i < len(table.Rows); i++ {
		assert.LessOrEqual(t, table.Rows[i-1].StartTime, table.Rows[i].StartTime)
	}

	first := table.Rows[0]
	assert.Equal(t, "1-1", first.TaskID)
	assert.Equal(t, int64(4), first.Duration)
	assert.Equal(t, int64(10), first.JobDuration, "分片行显示父任务的完整时长")

	// 整任务行的 TaskID 没有分片后缀
	var wholeJobRow *ScheduleRow
	for i := range table.Rows {
		if table.Rows[i].JobID == 2 {
			wholeJobRow = &table.Rows[i]
		}
	}
	require.NotNil(t, wholeJobRow)
	assert.Equal(t, "2", wholeJobRow.TaskID)
	assert.Equal(t, int32(0), wholeJobRow.ChunkIndex)

	// 资源用量汇总
	require.Len(t, table.Resources, 2)
	assert.Equal(t, int64(8), table.Resources[0].UsedTime)
	assert.InDelta(t, 8.0/12.0*100, table.Resources[0].Utilization, 1e-9)
	assert.False(t, table.Resources[0].OverCapacity)
	assert.Equal(t, int64(5), table.Resources[1].UsedTime)
}

func TestBuildScheduleTable_OverCapacityFlag(t *testing.T) {
	jobs := []*domain.Job{{ID: 1, Duration: 6}}
	resources := []*domain.Resource{{ID: 1, Name: "小机台", Capacity: 4}}

	ch := NewChromosomeFromGenes([]domain.SchedulingResultGene{
		{JobID: 1, ResourceID: 1, StartTime: 0, EndTime: 6},
	})

	table := BuildScheduleTable(ch, jobs, resources)
	require.Len(t, table.Resources, 1)
	assert.True(t, table.Resources[0].OverCapacity)
	assert.InDelta(t, 150.0, table.Resources[0].Utilization, 1e-9)
}

func TestBuildScheduleTable_IsIdempotent(t *testing.T) {
	jobs := []*domain.Job{{ID: 1, Duration: 4}}
	resources := []*domain.Resource{{ID: 1, Capacity: 10}}

	ch := NewChromosomeFromGenes([]domain.SchedulingResultGene{
		{JobID: 1, ResourceID: 1, StartTime: 0, EndTime: 4},
	})

	t1 := BuildScheduleTable(ch, jobs, resources)
	t2 := BuildScheduleTable(ch, jobs, resources)
	assert.Equal(t, t1, t2)
}
