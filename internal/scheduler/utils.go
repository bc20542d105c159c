package scheduler

import "github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"

// needsChunking 判断一个任务是否需要被切分为分片
func (s *Scheduler) needsChunking(job *domain.Job) bool {
	return s.parameters.AllowChunking && job.Duration > s.parameters.Quantum
}

// chunkCount 计算时长为 duration 的任务在时间片 quantum 下的分片数量，即 ceil(duration/quantum)
func chunkCount(duration, quantum int64) int32 {
	return int32((duration + quantum - 1) / quantum)
}

// chunkLength 计算第 k 个分片（从 1 开始）的时长
// 除最后一个分片外都是完整的时间片；最后一个分片为余数，整除时为完整时间片
func chunkLength(duration, quantum int64, k int32) int64 {
	if k < chunkCount(duration, quantum) {
		return quantum
	}
	if rem := duration % quantum; rem != 0 {
		return rem
	}
	return quantum
}
