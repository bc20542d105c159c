package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

func (r *Repository) InsertSchedulingResult(result *domain.SchedulingResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的排程结果删除
	query := `DELETE FROM scheduling_results WHERE schedule_plan_id = $1`
	if _, err := tx.ExecContext(ctx, query, result.SchedulePlanID); err != nil {
		return err
	}

	query = `
		INSERT INTO scheduling_results (schedule_plan_id, fitness)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, result.SchedulePlanID, result.Fitness).Scan(&result.ID, &result.CreatedAt, &result.Version); err != nil {
		return err
	}

	for _, gene := range result.Genes {
		query := `
			INSERT INTO scheduling_result_genes (scheduling_result_id, job_id, chunk_index, resource_id, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		args := []any{result.ID, gene.JobID, gene.ChunkIndex, gene.ResourceID, gene.StartTime, gene.EndTime}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSchedulingResultBySchedulePlanID(schedulePlanID int64) (*domain.SchedulingResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result := &domain.SchedulingResult{
		SchedulePlanID: schedulePlanID,
	}

	query := `
		SELECT id, fitness, created_at, version
		FROM scheduling_results WHERE schedule_plan_id = $1
	`
	dst := []any{&result.ID, &result.Fitness, &result.CreatedAt, &result.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, schedulePlanID).Scan(dst...); err != nil {
		return nil, err
	}

	query = `
		SELECT job_id, chunk_index, resource_id, start_time, end_time
		FROM scheduling_result_genes WHERE scheduling_result_id = $1
		ORDER BY start_time, job_id, chunk_index
	`
	rows, err := r.dbpool.QueryContext(ctx, query, result.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var gene domain.SchedulingResultGene
		dst := []any{&gene.JobID, &gene.ChunkIndex, &gene.ResourceID, &gene.StartTime, &gene.EndTime}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		result.Genes = append(result.Genes, gene)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
