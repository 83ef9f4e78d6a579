package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MentorRepository struct {
	pool *pgxpool.Pool
}

func NewMentorRepository(pool *pgxpool.Pool) *MentorRepository {
	return &MentorRepository{pool: pool}
}

const mentorColumns = `id, telegram_id, name, email, college, major, subjects, grade_levels, available, last_request_time, created_at`

// Create создаёт ментора
func (r *MentorRepository) Create(ctx context.Context, mentor *model.Mentor) error {
	query := `
		INSERT INTO mentors (telegram_id, name, email, college, major, subjects, grade_levels, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		mentor.TelegramID,
		mentor.Name,
		mentor.Email,
		mentor.College,
		mentor.Major,
		mentor.Subjects,
		mentor.GradeLevels,
		mentor.Available,
	).Scan(&mentor.ID, &mentor.CreatedAt)

	if err != nil {
		return fmt.Errorf("create mentor: %w", err)
	}

	return nil
}

// GetByID получает ментора по ID
func (r *MentorRepository) GetByID(ctx context.Context, id int64) (*model.Mentor, error) {
	query := `
		SELECT ` + mentorColumns + `
		FROM mentors
		WHERE id = $1
	`

	mentor, err := scanMentor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor by id: %w", err)
	}

	return mentor, nil
}

// GetByTelegramID получает ментора по Telegram ID
func (r *MentorRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Mentor, error) {
	query := `
		SELECT ` + mentorColumns + `
		FROM mentors
		WHERE telegram_id = $1
	`

	mentor, err := scanMentor(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor by telegram id: %w", err)
	}

	return mentor, nil
}

// UpdateLastRequest обновляет время последнего запроса ментору
func (r *MentorRepository) UpdateLastRequest(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE mentors
		SET last_request_time = $1
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("update mentor last request time: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mentor not found")
	}

	return nil
}

func scanMentor(row pgx.Row) (*model.Mentor, error) {
	var mentor model.Mentor
	err := row.Scan(
		&mentor.ID,
		&mentor.TelegramID,
		&mentor.Name,
		&mentor.Email,
		&mentor.College,
		&mentor.Major,
		&mentor.Subjects,
		&mentor.GradeLevels,
		&mentor.Available,
		&mentor.LastRequestTime,
		&mentor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mentor, nil
}
