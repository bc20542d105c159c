package domain

import "time"

type SchedulePlanStatus string

const (
	SchedulePlanStatusPending    SchedulePlanStatus = "待排程"
	SchedulePlanStatusScheduling SchedulePlanStatus = "排程中"
	SchedulePlanStatusCompleted  SchedulePlanStatus = "已完成"
	SchedulePlanStatusFailed     SchedulePlanStatus = "排程失败"
)

type SchedulePlan struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Status      SchedulePlanStatus `json:"status"`
	Jobs        []Job              `json:"jobs"`
	Resources   []Resource         `json:"resources"`
	CreatedAt   time.Time          `json:"createdAt"`
	Version     int32              `json:"-"`
}
