package scheduler

import (
	"sort"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

// ScheduleRow: 调度表中的一行，对应一个任务或任务分片的安排
// JobDuration 是所属任务的完整时长，分片行也汇总显示父任务的总时长
type ScheduleRow struct {
	ResourceID  int64  `json:"resourceID"`
	TaskID      string `json:"taskID"`
	JobID       int64  `json:"jobID"`
	ChunkIndex  int32  `json:"chunkIndex"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	Duration    int64  `json:"duration"`
	JobDuration int64  `json:"jobDuration"`
}

// ResourceUsage: 单个资源的用量汇总
type ResourceUsage struct {
	ResourceID   int64   `json:"resourceID"`
	ResourceName string  `json:"resourceName"`
	UsedTime     int64   `json:"usedTime"`
	Capacity     int64   `json:"capacity"`
	Utilization  float64 `json:"utilization"` // 百分比
	OverCapacity bool    `json:"overCapacity"`
}

type ScheduleTable struct {
	Rows      []ScheduleRow   `json:"rows"`
	Resources []ResourceUsage `json:"resources"`
}

// BuildScheduleTable 把染色体投影为按开始时间排序的调度表和各资源的用量汇总
// 只读投影，不修改传入的染色体
func BuildScheduleTable(ch *Chromosome, jobs []*domain.Job, resources []*domain.Resource) *ScheduleTable {
	jobMap := make(map[int64]*domain.Job, len(jobs))
	for _, job := range jobs {
		jobMap[job.ID] = job
	}

	rows := make([]ScheduleRow, 0, len(ch.genes))
	usedTime := make(map[int64]int64, len(resources))

	for _, gene := range ch.genes {
		row := ScheduleRow{
			ResourceID: gene.resourceID,
			TaskID:     gene.task.String(),
			JobID:      gene.task.JobID,
			ChunkIndex: gene.task.Chunk,
			StartTime:  gene.start,
			EndTime:    gene.end,
			Duration:   gene.Duration(),
		}
		if job, ok := jobMap[gene.task.JobID]; ok {
			row.JobDuration = job.Duration
		}
		rows = append(rows, row)
		usedTime[gene.resourceID] += gene.Duration()
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StartTime != rows[j].StartTime {
			return rows[i].StartTime < rows[j].StartTime
		}
		if rows[i].ResourceID != rows[j].ResourceID {
			return rows[i].ResourceID < rows[j].ResourceID
		}
		if rows[i].JobID != rows[j].JobID {
			return rows[i].JobID < rows[j].JobID
		}
		return rows[i].ChunkIndex < rows[j].ChunkIndex
	})

	usages := make([]ResourceUsage, 0, len(resources))
	for _, resource := range resources {
		usage := ResourceUsage{
			ResourceID:   resource.ID,
			ResourceName: resource.Name,
			UsedTime:     usedTime[resource.ID],
			Capacity:     resource.Capacity,
			OverCapacity: usedTime[resource.ID] > resource.Capacity,
		}
		if resource.Capacity > 0 {
			usage.Utilization = float64(usage.UsedTime) / float64(resource.Capacity) * 100
		}
		usages = append(usages, usage)
	}

	return &ScheduleTable{
		Rows:      rows,
		Resources: usages,
	}
}
