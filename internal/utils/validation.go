package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

// ValidateSchedulePlanInput 在发起排程前检查计划的基本结构约束：
// ID 唯一、时长为正、容量非负、依赖目标存在、总时长不超过总容量
func ValidateSchedulePlanInput(jobs []domain.Job, resources []domain.Resource) error {
	if len(jobs) == 0 {
		return errors.New("计划中至少需要一个任务")
	}
	if len(resources) == 0 {
		return errors.New("计划中至少需要一个资源")
	}

	jobIDs := make(map[int64]bool, len(jobs))
	var totalDuration int64
	for _, job := range jobs {
		if job.Duration <= 0 {
			return fmt.Errorf("任务 %d 的时长必须为正数", job.ID)
		}
		if jobIDs[job.ID] {
			return fmt.Errorf("任务 ID %d 重复", job.ID)
		}
		jobIDs[job.ID] = true
		totalDuration += job.Duration
	}

	resourceIDs := make(map[int64]bool, len(resources))
	var totalCapacity int64
	for _, resource := range resources {
		if resource.Capacity < 0 {
			return fmt.Errorf("资源 %d 的容量不能为负数", resource.ID)
		}
		if resourceIDs[resource.ID] {
			return fmt.Errorf("资源 ID %d 重复", resource.ID)
		}
		resourceIDs[resource.ID] = true
		totalCapacity += resource.Capacity
	}

	for _, job := range jobs {
		seen := make(map[int64]bool, len(job.Dependencies))
		for _, dep := range job.Dependencies {
			if !jobIDs[dep] {
				return fmt.Errorf("任务 %d 依赖了不存在的任务 %d", job.ID, dep)
			}
			if dep == job.ID {
				return fmt.Errorf("任务 %d 不能依赖自己", job.ID)
			}
			if seen[dep] {
				return fmt.Errorf("任务 %d 的依赖 %d 重复", job.ID, dep)
			}
			seen[dep] = true
		}
	}

	if totalDuration > totalCapacity {
		return fmt.Errorf("任务总时长 %d 超过了资源总容量 %d", totalDuration, totalCapacity)
	}

	return nil
}
