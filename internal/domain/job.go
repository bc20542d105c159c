package domain

// Job: 一个待调度的任务
// Duration 为正整数时长，Dependencies 中的任务必须全部完成后本任务才能开始
type Job struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Duration     int64   `json:"duration"`
	Dependencies []int64 `json:"dependencies"`
}
