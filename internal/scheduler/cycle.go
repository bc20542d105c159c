package scheduler

import "github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"

type visitColor int8

const (
	colorUnvisited visitColor = iota
	colorOnStack
	colorFinished
)

// DetectCycle 检查任务依赖图中是否存在环
// 使用三色标记的深度优先遍历：访问到仍在递归栈上的节点即说明存在回边
// 指向未知任务的依赖在这里被忽略，由输入校验负责报告
func DetectCycle(jobs []*domain.Job) bool {
	deps := make(map[int64][]int64, len(jobs))
	for _, job := range jobs {
		deps[job.ID] = job.Dependencies
	}

	colors := make(map[int64]visitColor, len(jobs))

	var visit func(id int64) bool
	visit = func(id int64) bool {
		colors[id] = colorOnStack
		for _, dep := range deps[id] {
			if _, known := deps[dep]; !known {
				continue
			}
			switch colors[dep] {
			case colorOnStack:
				return true
			case colorUnvisited:
				if visit(dep) {
					return true
				}
			}
		}
		colors[id] = colorFinished
		return false
	}

	for _, job := range jobs {
		if colors[job.ID] == colorUnvisited {
			if visit(job.ID) {
				return true
			}
		}
	}
	return false
}
