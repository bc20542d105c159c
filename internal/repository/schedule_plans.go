package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func (r *Repository) CreateSchedulePlan(plan *domain.SchedulePlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedule_plans (name, description, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, plan.Name, plan.Description, domain.SchedulePlanStatusPending).Scan(&plan.ID, &plan.CreatedAt, &plan.Version); err != nil {
		return err
	}
	plan.Status = domain.SchedulePlanStatusPending

	for _, job := range plan.Jobs {
		query := `
			INSERT INTO plan_jobs (schedule_plan_id, job_id, name, duration)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, job.ID, job.Name, job.Duration); err != nil {
			return err
		}

		for _, dep := range job.Dependencies {
			query := `
				INSERT INTO plan_job_dependencies (schedule_plan_id, job_id, depends_on_job_id)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.ExecContext(ctx, query, plan.ID, job.ID, dep); err != nil {
				return err
			}
		}
	}

	for _, resource := range plan.Resources {
		query := `
			INSERT INTO plan_resources (schedule_plan_id, resource_id, name, capacity)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, resource.ID, resource.Name, resource.Capacity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetAllSchedulePlans 只返回计划的基本信息，不包含任务和资源
func (r *Repository) GetAllSchedulePlans() ([]*domain.SchedulePlan, error) {
	query := `
		SELECT id, name, description, status, created_at, version
		FROM schedule_plans
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*domain.SchedulePlan{}
	for rows.Next() {
		var plan domain.SchedulePlan
		dst := []any{
			&plan.ID,
			&plan.Name,
			&plan.Description,
			&plan.Status,
			&plan.CreatedAt,
			&plan.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		plans = append(plans, &plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *Repository) GetSchedulePlanByID(id int64) (*domain.SchedulePlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	plan := &domain.SchedulePlan{
		ID: id,
	}

	query := `
		SELECT name, description, status, created_at, version
		FROM schedule_plans WHERE id = $1
	`
	dst := []any{&plan.Name, &plan.Description, &plan.Status, &plan.CreatedAt, &plan.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	query = `
		SELECT job_id, name, duration
		FROM plan_jobs WHERE schedule_plan_id = $1
		ORDER BY job_id
	`
	jobRows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer jobRows.Close()

	jobIndex := make(map[int64]int)
	for jobRows.Next() {
		var job domain.Job
		if err := jobRows.Scan(&job.ID, &job.Name, &job.Duration); err != nil {
			return nil, err
		}
		jobIndex[job.ID] = len(plan.Jobs)
		plan.Jobs = append(plan.Jobs, job)
	}
	if err := jobRows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT job_id, depends_on_job_id
		FROM plan_job_dependencies WHERE schedule_plan_id = $1
		ORDER BY job_id, depends_on_job_id
	`
	depRows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer depRows.Close()

	for depRows.Next() {
		var jobID, dep int64
		if err := depRows.Scan(&jobID, &dep); err != nil {
			return nil, err
		}
		if i, exists := jobIndex[jobID]; exists {
			plan.Jobs[i].Dependencies = append(plan.Jobs[i].Dependencies, dep)
		}
	}
	if err := depRows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT resource_id, name, capacity
		FROM plan_resources WHERE schedule_plan_id = $1
		ORDER BY resource_id
	`
	resourceRows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer resourceRows.Close()

	for resourceRows.Next() {
		var resource domain.Resource
		if err := resourceRows.Scan(&resource.ID, &resource.Name, &resource.Capacity); err != nil {
			return nil, err
		}
		plan.Resources = append(plan.Resources, resource)
	}
	if err := resourceRows.Err(); err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *Repository) UpdateSchedulePlanStatus(plan *domain.SchedulePlan, status domain.SchedulePlanStatus) error {
	query := `
		UPDATE schedule_plans
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, status, plan.ID, plan.Version).Scan(&plan.Version); err != nil {
		return err
	}
	plan.Status = status

	return nil
}

func (r *Repository) DeleteSchedulePlan(id int64) error {
	query := `
		DELETE FROM schedule_plans WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
