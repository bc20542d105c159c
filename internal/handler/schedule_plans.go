package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/utils"
)

func (h *Handler) CreateSchedulePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string            `json:"name" validate:"required"`
		Description string            `json:"description"`
		Jobs        []domain.Job      `json:"jobs" validate:"required,min=1"`
		Resources   []domain.Resource `json:"resources" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检查任务和资源是否合法
	if err := utils.ValidateSchedulePlanInput(req.Jobs, req.Resources); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检查任务依赖图中是否有环
	jobs := make([]*domain.Job, 0, len(req.Jobs))
	for i := range req.Jobs {
		jobs = append(jobs, &req.Jobs[i])
	}
	if scheduler.DetectCycle(jobs) {
		h.badRequest(w, r, errors.New("任务依赖图中存在环"))
		return
	}

	plan := &domain.SchedulePlan{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.SchedulePlanStatusPending,
		Jobs:        req.Jobs,
		Resources:   req.Resources,
	}

	// 插入数据到数据库中
	if err := h.repository.CreateSchedulePlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "schedule_plans_name_key":
				h.errorResponse(w, r, "排产计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建排产计划成功", plan)
}

func (h *Handler) GetAllSchedulePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repository.GetAllSchedulePlans()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排产计划列表成功", plans)
}

func (h *Handler) GetSchedulePlanByID(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SchedulePlanCtx).(*domain.SchedulePlan)

	h.successResponse(w, r, "获取排产计划成功", plan)
}

func (h *Handler) DeleteSchedulePlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SchedulePlanCtx).(*domain.SchedulePlan)

	if err := h.repository.DeleteSchedulePlan(plan.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 排产表缓存也要一并清掉
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Del(ctx, fmt.Sprintf("schedule_table_%d", plan.ID)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除排产计划成功", nil)
}

func (h *Handler) ScheduleSchedulePlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SchedulePlanCtx).(*domain.SchedulePlan)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if plan.Status == domain.SchedulePlanStatusScheduling {
		h.errorResponse(w, r, "该排产计划正在排程中")
		return
	}

	// 获取参数，未提供的参数使用配置中的默认值
	var req struct {
		PopulationSize *int32   `json:"populationSize" validate:"omitempty,min=1"`
		MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
		CrossoverRate  *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
		SelectionRatio *float64 `json:"selectionRatio" validate:"omitempty,gt=0,max=1"`
		TournamentSize *int32   `json:"tournamentSize" validate:"omitempty,min=1"`
		Quantum        *int64   `json:"quantum" validate:"omitempty,min=1"`
		AllowChunking  *bool    `json:"allowChunking"`
		Patience       *int32   `json:"patience" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	parameters := domain.SchedulingParameters{
		PopulationSize: h.config.Scheduler.PopulationSize,
		MutationRate:   h.config.Scheduler.MutationRate,
		CrossoverRate:  h.config.Scheduler.CrossoverRate,
		SelectionRatio: h.config.Scheduler.SelectionRatio,
		TournamentSize: h.config.Scheduler.TournamentSize,
		Quantum:        h.config.Scheduler.Quantum,
		AllowChunking:  h.config.Scheduler.AllowChunking,
		Patience:       h.config.Scheduler.Patience,
	}

	if req.PopulationSize != nil {
		parameters.PopulationSize = *req.PopulationSize
	}
	if req.MutationRate != nil {
		parameters.MutationRate = *req.MutationRate
	}
	if req.CrossoverRate != nil {
		parameters.CrossoverRate = *req.CrossoverRate
	}
	if req.SelectionRatio != nil {
		parameters.SelectionRatio = *req.SelectionRatio
	}
	if req.TournamentSize != nil {
		parameters.TournamentSize = *req.TournamentSize
	}
	if req.Quantum != nil {
		parameters.Quantum = *req.Quantum
	}
	if req.AllowChunking != nil {
		parameters.AllowChunking = *req.AllowChunking
	}
	if req.Patience != nil {
		parameters.Patience = *req.Patience
	}

	// 先将计划状态更新为排程中，避免重复触发
	if err := h.repository.UpdateSchedulePlanStatus(plan, domain.SchedulePlanStatusScheduling); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排产计划状态已变更，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 准备排程任务
	task := domain.SchedulingTask{
		SchedulePlanID: plan.ID,
		NotifyEmail:    myInfo.Email,
		Parameters:     parameters,
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 将排程任务发送到消息队列
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mqChannel.PublishWithContext(
		ctx,
		"",
		"scheduling_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        taskData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排程任务已提交", plan)
}

func (h *Handler) GetSchedulingResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SchedulePlanCtx).(*domain.SchedulePlan)

	schedulingResult, err := h.repository.GetSchedulingResultBySchedulePlanID(plan.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "该排产计划还没有排程结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排程结果成功", schedulingResult)
}

func (h *Handler) GetScheduleTable(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(SchedulePlanCtx).(*domain.SchedulePlan)

	cacheKey := fmt.Sprintf("schedule_table_%d", plan.ID)

	// 先尝试从缓存中获取排产表
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	cached, err := h.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		var table scheduler.ScheduleTable
		if err := json.Unmarshal([]byte(cached), &table); err == nil {
			h.successResponse(w, r, "获取排产表成功", table)
			return
		}
		// 缓存损坏时回退到重新构建
	}

	schedulingResult, err := h.repository.GetSchedulingResultBySchedulePlanID(plan.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "该排产计划还没有排程结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	jobs := make([]*domain.Job, 0, len(plan.Jobs))
	for i := range plan.Jobs {
		jobs = append(jobs, &plan.Jobs[i])
	}
	resources := make([]*domain.Resource, 0, len(plan.Resources))
	for i := range plan.Resources {
		resources = append(resources, &plan.Resources[i])
	}

	chromosome := scheduler.NewChromosomeFromGenes(schedulingResult.Genes)
	table := scheduler.BuildScheduleTable(chromosome, jobs, resources)

	// 写入缓存
	tableData, err := json.Marshal(table)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.redisClient.Set(ctx, cacheKey, tableData, time.Duration(h.config.Redis.TableExpiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排产表成功", table)
}
