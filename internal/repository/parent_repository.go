package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParentRepository struct {
	pool *pgxpool.Pool
}

func NewParentRepository(pool *pgxpool.Pool) *ParentRepository {
	return &ParentRepository{pool: pool}
}

// Create создаёт родителя
func (r *ParentRepository) Create(ctx context.Context, parent *model.Parent) error {
	query := `
		INSERT INTO parents (telegram_id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		parent.TelegramID,
		parent.Name,
		parent.Email,
	).Scan(&parent.ID, &parent.CreatedAt)

	if err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	return nil
}

// GetByID получает родителя по ID вместе со списком детей
func (r *ParentRepository) GetByID(ctx context.Context, id int64) (*model.Parent, error) {
	query := `
		SELECT id, telegram_id, name, email, created_at
		FROM parents
		WHERE id = $1
	`

	var parent model.Parent
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&parent.ID,
		&parent.TelegramID,
		&parent.Name,
		&parent.Email,
		&parent.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get parent by id: %w", err)
	}

	if err := r.loadStudents(ctx, &parent); err != nil {
		return nil, err
	}

	return &parent, nil
}

// GetByTelegramID получает родителя по Telegram ID
func (r *ParentRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Parent, error) {
	query := `
		SELECT id, telegram_id, name, email, created_at
		FROM parents
		WHERE telegram_id = $1
	`

	var parent model.Parent
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&parent.ID,
		&parent.TelegramID,
		&parent.Name,
		&parent.Email,
		&parent.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get parent by telegram id: %w", err)
	}

	if err := r.loadStudents(ctx, &parent); err != nil {
		return nil, err
	}

	return &parent, nil
}

// loadStudents загружает детей родителя
func (r *ParentRepository) loadStudents(ctx context.Context, parent *model.Parent) error {
	query := `
		SELECT id, parent_id, name, grade_level, subjects, created_at
		FROM students
		WHERE parent_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, parent.ID)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}
	defer rows.Close()

	parent.Students = []model.Student{}
	for rows.Next() {
		var student model.Student
		err := rows.Scan(
			&student.ID,
			&student.ParentID,
			&student.Name,
			&student.GradeLevel,
			&student.Subjects,
			&student.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan student: %w", err)
		}
		parent.Students = append(parent.Students, student)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate students: %w", err)
	}

	return nil
}
