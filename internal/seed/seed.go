package seed

import (
	"log/slog"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/repository"
)

// SeedDemoData 插入一个贴近真实产线的演示排产计划
// 数据取自一条小型机加工产线的加工流程，方便联调时直接观察排程结果
func SeedDemoData(r *repository.Repository) {
	plan := &domain.SchedulePlan{
		Name:        "机加工车间演示计划",
		Description: "下料、粗加工、精加工、热处理、装配、质检的完整流程",
		Status:      domain.SchedulePlanStatusPending,
		Jobs: []domain.Job{
			{ID: 1, Name: "原料下料", Duration: 4},
			{ID: 2, Name: "车削粗加工", Duration: 8, Dependencies: []int64{1}},
			{ID: 3, Name: "铣削粗加工", Duration: 6, Dependencies: []int64{1}},
			{ID: 4, Name: "热处理", Duration: 12, Dependencies: []int64{2, 3}},
			{ID: 5, Name: "磨削精加工", Duration: 10, Dependencies: []int64{4}},
			{ID: 6, Name: "表面喷涂", Duration: 5, Dependencies: []int64{4}},
			{ID: 7, Name: "部件装配", Duration: 9, Dependencies: []int64{5, 6}},
			{ID: 8, Name: "成品质检", Duration: 3, Dependencies: []int64{7}},
			{ID: 9, Name: "包装入库", Duration: 2, Dependencies: []int64{8}},
		},
		Resources: []domain.Resource{
			{ID: 1, Name: "加工中心一号", Capacity: 30},
			{ID: 2, Name: "加工中心二号", Capacity: 24},
			{ID: 3, Name: "热处理炉", Capacity: 16},
		},
	}

	if err := r.CreateSchedulePlan(plan); err != nil {
		slog.Error("无法插入演示排产计划", slog.String("error", err.Error()))
		return
	}

	slog.Info("插入演示排产计划成功", slog.Int64("schedule_plan_id", plan.ID))
}
