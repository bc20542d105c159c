package domain

import "time"

// SchedulingResultGene: 排程结果中的一条任务安排
// ChunkIndex 为 0 时表示整个任务，大于 0 时表示任务的第 ChunkIndex 个分片
type SchedulingResultGene struct {
	JobID      int64 `json:"jobID"`
	ChunkIndex int32 `json:"chunkIndex"`
	ResourceID int64 `json:"resourceID"`
	StartTime  int64 `json:"startTime"`
	EndTime    int64 `json:"endTime"`
}

type SchedulingResult struct {
	ID             int64                  `json:"id"`
	SchedulePlanID int64                  `json:"schedulePlanID"`
	Fitness        float64                `json:"fitness"`
	Genes          []SchedulingResultGene `json:"genes"`
	CreatedAt      time.Time              `json:"createdAt"`
	Version        int32                  `json:"-"`
}
