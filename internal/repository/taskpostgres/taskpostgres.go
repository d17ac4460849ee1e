// Package taskpostgres stores resize tasks in PostgreSQL
package taskpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

const taskColumns = `task_uid, source_key, result_key, thumb_key, orig_width, orig_height, max_width, max_height, quality, strategy,
	thumb_width, thumb_height, result_width, result_height, result_size, status, err_msg, created_at, updated_at`

func (p PostgresRepo) Create(ctx context.Context, n *model.Task) error {
	query := `INSERT INTO resize_tasks (task_uid, source_key, orig_width, orig_height, max_width, max_height, quality, strategy,
	thumb_width, thumb_height, status, err_msg, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := p.DB.ExecContext(ctx, query, n.UID, n.SourceKey, n.OrigWidth, n.OrigHeight, n.MaxWidth, n.MaxHeight, n.Quality, n.Strategy,
		n.ThumbWidth, n.ThumbHeight, n.Status, n.ErrMsg, n.CreatedAt, n.CreatedAt)
	return err
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM resize_tasks
	WHERE task_uid = $1`

	task, err := scanTask(p.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrTaskNotFound
		default:
			return nil, err // 500
		}
	}
	return task, nil
}

func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	query := fmt.Sprintf(`SELECT %s
	FROM resize_tasks
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, taskColumns, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	tasks := make([]model.Task, 0, req.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tasks, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM resize_tasks
	WHERE task_uid = $1`

	res, err := p.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err // 500
	}
	return expectAffected(res)
}

func (p PostgresRepo) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	query := `UPDATE resize_tasks SET status = $1, updated_at = now() WHERE task_uid = $2`

	res, err := p.DB.ExecContext(ctx, query, newStat, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// MarkFailed - статус failed плюс текст ошибки в err_msg
func (p PostgresRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE resize_tasks SET status = $1, err_msg = err_msg || to_jsonb($2::text), updated_at = now() WHERE task_uid = $3`

	res, err := p.DB.ExecContext(ctx, query, model.StatusFailed, reason, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (p PostgresRepo) SaveResult(ctx context.Context, input *model.Task) error {
	query := `UPDATE resize_tasks
	SET status = $1, updated_at = $2, result_key = $3, thumb_key = $4, result_width = $5, result_height = $6, result_size = $7
	WHERE task_uid = $8`

	res, err := p.DB.ExecContext(ctx, query, input.Status, input.UpdatedAt, input.ResultKey, input.ThumbKey,
		input.ResultWidth, input.ResultHeight, input.ResultSize, input.UID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT task_uid
	FROM resize_tasks
	WHERE status IN ($1, $2)
	AND updated_at < now() - $3::interval
	LIMIT $4`

	stale := fmt.Sprintf("%d seconds", int(model.OrphanTimeout.Seconds()))
	rows, err := p.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusInProgress, stale, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		uid := ""
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		orphans = append(orphans, uid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var task model.Task
	var resultKey, thumbKey sql.NullString

	err := row.Scan(&task.UID,
		&task.SourceKey,
		&resultKey,
		&thumbKey,
		&task.OrigWidth,
		&task.OrigHeight,
		&task.MaxWidth,
		&task.MaxHeight,
		&task.Quality,
		&task.Strategy,
		&task.ThumbWidth,
		&task.ThumbHeight,
		&task.ResultWidth,
		&task.ResultHeight,
		&task.ResultSize,
		&task.Status,
		&task.ErrMsg,
		&task.CreatedAt,
		&task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.ResultKey = resultKey.String
	task.ThumbKey = thumbKey.String
	return &task, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrTaskNotFound // 404
	}
	return nil
}
