package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MentorshipRepository хранилище записей менторства. Записи никогда не
// удаляются операциями жизненного цикла; единственное исключение — чистка
// осиротевших ссылок при чтении.
type MentorshipRepository struct {
	pool *pgxpool.Pool
}

func NewMentorshipRepository(pool *pgxpool.Pool) *MentorshipRepository {
	return &MentorshipRepository{pool: pool}
}

// Create создаёт запись менторства
func (r *MentorshipRepository) Create(ctx context.Context, m *model.Mentorship) error {
	query := `
		INSERT INTO mentorships (token, state, message, mentor_id, parent_id, student_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		m.Token,
		m.State,
		m.Message,
		m.Mentor.ID,
		m.Parent.ID,
		m.Student.ID,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		return fmt.Errorf("create mentorship: %w", err)
	}

	return nil
}

// GetByID получает менторство по ID вместе с сессиями
func (r *MentorshipRepository) GetByID(ctx context.Context, id int64) (*model.Mentorship, error) {
	query := `
		SELECT id, token, state, message, start_date, end_date, mentor_id, parent_id, student_id, created_at, updated_at
		FROM mentorships
		WHERE id = $1
	`

	m, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentorship: %w", err)
	}

	if err := r.loadSessions(ctx, []*model.Mentorship{m}); err != nil {
		return nil, err
	}

	return m, nil
}

// GetByToken получает менторство по токену callback-кнопки
func (r *MentorshipRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.Mentorship, error) {
	query := `
		SELECT id, token, state, message, start_date, end_date, mentor_id, parent_id, student_id, created_at, updated_at
		FROM mentorships
		WHERE token = $1
	`

	m, err := r.scanOne(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentorship by token: %w", err)
	}

	if err := r.loadSessions(ctx, []*model.Mentorship{m}); err != nil {
		return nil, err
	}

	return m, nil
}

// GetByUser получает менторства, где пользователь выступает в любой из трёх
// ролей, с загруженными участниками. Внешних ключей на пользователей нет:
// участник мог быть удалён, тогда соответствующая ссылка остаётся
// неразрешённой и решение принимает сервисный слой.
func (r *MentorshipRepository) GetByUser(ctx context.Context, userID int64) ([]*model.Mentorship, error) {
	query := `
		SELECT
			m.id, m.token, m.state, m.message, m.start_date, m.end_date,
			m.mentor_id, m.parent_id, m.student_id, m.created_at, m.updated_at,
			mt.id, mt.telegram_id, mt.name, mt.email, mt.college, mt.major,
			mt.subjects, mt.grade_levels, mt.available, mt.last_request_time, mt.created_at,
			p.id, p.telegram_id, p.name, p.email, p.created_at,
			s.id, s.parent_id, s.name, s.grade_level, s.subjects, s.created_at
		FROM mentorships m
		LEFT JOIN mentors mt ON mt.id = m.mentor_id
		LEFT JOIN parents p ON p.id = m.parent_id
		LEFT JOIN students s ON s.id = m.student_id
		WHERE m.mentor_id = $1 OR m.parent_id = $1 OR m.student_id = $1
		ORDER BY m.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get mentorships by user: %w", err)
	}
	defer rows.Close()

	var mentorships []*model.Mentorship
	for rows.Next() {
		var m model.Mentorship
		var mentorID, parentID, studentID int64

		// Поля участников nullable из-за LEFT JOIN
		var mtID, mtTelegramID *int64
		var mtName, mtEmail, mtCollege, mtMajor *string
		var mtSubjects, mtGradeLevels []string
		var mtAvailable *bool
		var mtLastRequestTime, mtCreatedAt *time.Time

		var pID, pTelegramID *int64
		var pName, pEmail *string
		var pCreatedAt *time.Time

		var sID, sParentID *int64
		var sName, sGradeLevel *string
		var sSubjects []string
		var sCreatedAt *time.Time

		err := rows.Scan(
			&m.ID, &m.Token, &m.State, &m.Message, &m.StartDate, &m.EndDate,
			&mentorID, &parentID, &studentID, &m.CreatedAt, &m.UpdatedAt,
			&mtID, &mtTelegramID, &mtName, &mtEmail, &mtCollege, &mtMajor,
			&mtSubjects, &mtGradeLevels, &mtAvailable, &mtLastRequestTime, &mtCreatedAt,
			&pID, &pTelegramID, &pName, &pEmail, &pCreatedAt,
			&sID, &sParentID, &sName, &sGradeLevel, &sSubjects, &sCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mentorship with users: %w", err)
		}

		m.Mentor = model.NewRef[model.Mentor](mentorID)
		if mtID != nil {
			m.Mentor = model.ResolvedRef(mentorID, &model.Mentor{
				ID:              *mtID,
				TelegramID:      *mtTelegramID,
				Name:            *mtName,
				Email:           *mtEmail,
				College:         *mtCollege,
				Major:           *mtMajor,
				Subjects:        mtSubjects,
				GradeLevels:     mtGradeLevels,
				Available:       *mtAvailable,
				LastRequestTime: mtLastRequestTime,
				CreatedAt:       *mtCreatedAt,
			})
		}

		m.Parent = model.NewRef[model.Parent](parentID)
		if pID != nil {
			m.Parent = model.ResolvedRef(parentID, &model.Parent{
				ID:         *pID,
				TelegramID: *pTelegramID,
				Name:       *pName,
				Email:      *pEmail,
				CreatedAt:  *pCreatedAt,
			})
		}

		m.Student = model.NewRef[model.Student](studentID)
		if sID != nil {
			m.Student = model.ResolvedRef(studentID, &model.Student{
				ID:         *sID,
				ParentID:   *sParentID,
				Name:       *sName,
				GradeLevel: *sGradeLevel,
				Subjects:   sSubjects,
				CreatedAt:  *sCreatedAt,
			})
		}

		mentorships = append(mentorships, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentorships: %w", err)
	}

	if err := r.loadSessions(ctx, mentorships); err != nil {
		return nil, err
	}

	return mentorships, nil
}

// FindPending ищет pending запросы с теми же участниками
func (r *MentorshipRepository) FindPending(ctx context.Context, parentID, studentID, mentorID int64) ([]*model.Mentorship, error) {
	query := `
		SELECT id, token, state, message, start_date, end_date, mentor_id, parent_id, student_id, created_at, updated_at
		FROM mentorships
		WHERE parent_id = $1 AND student_id = $2 AND mentor_id = $3 AND state = $4
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, parentID, studentID, mentorID, model.StatePending)
	if err != nil {
		return nil, fmt.Errorf("find pending mentorships: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// GetPendingOlderThan получает pending запросы, созданные раньше cutoff
func (r *MentorshipRepository) GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Mentorship, error) {
	query := `
		SELECT id, token, state, message, start_date, end_date, mentor_id, parent_id, student_id, created_at, updated_at
		FROM mentorships
		WHERE state = $1 AND created_at < $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, model.StatePending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("get stale pending mentorships: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// UpdateStateIf атомарно переводит запись из состояния expected в next.
// Возвращает false, если запись отсутствует или её состояние уже другое.
func (r *MentorshipRepository) UpdateStateIf(ctx context.Context, id int64, expected, next model.MentorshipState, startDate, endDate *time.Time) (bool, error) {
	query := `
		UPDATE mentorships
		SET state = $1,
		    start_date = COALESCE($2, start_date),
		    end_date = COALESCE($3, end_date),
		    updated_at = now()
		WHERE id = $4 AND state = $5
	`

	result, err := r.pool.Exec(ctx, query, next, startDate, endDate, id, expected)
	if err != nil {
		return false, fmt.Errorf("update mentorship state: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// AddSession добавляет сессию к менторству
func (r *MentorshipRepository) AddSession(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (mentorship_id, rating, summary, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		session.MentorshipID,
		session.Rating,
		session.Summary,
		session.Date,
	).Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		return fmt.Errorf("add session: %w", err)
	}

	return nil
}

// Delete удаляет запись менторства. Используется только чисткой
// осиротевших ссылок.
func (r *MentorshipRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM mentorships
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete mentorship: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mentorship not found")
	}

	return nil
}

// scanOne читает одну строку менторства без участников и сессий
func (r *MentorshipRepository) scanOne(row pgx.Row) (*model.Mentorship, error) {
	var m model.Mentorship
	var mentorID, parentID, studentID int64

	err := row.Scan(
		&m.ID,
		&m.Token,
		&m.State,
		&m.Message,
		&m.StartDate,
		&m.EndDate,
		&mentorID,
		&parentID,
		&studentID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Mentor = model.NewRef[model.Mentor](mentorID)
	m.Parent = model.NewRef[model.Parent](parentID)
	m.Student = model.NewRef[model.Student](studentID)
	m.Sessions = []model.Session{}

	return &m, nil
}

// scanMany читает строки менторств без участников и сессий
func (r *MentorshipRepository) scanMany(rows pgx.Rows) ([]*model.Mentorship, error) {
	var mentorships []*model.Mentorship
	for rows.Next() {
		m, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentorship: %w", err)
		}
		mentorships = append(mentorships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentorships: %w", err)
	}

	return mentorships, nil
}

// loadSessions догружает сессии для набора менторств одним запросом
func (r *MentorshipRepository) loadSessions(ctx context.Context, mentorships []*model.Mentorship) error {
	if len(mentorships) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(mentorships))
	byID := make(map[int64]*model.Mentorship, len(mentorships))
	for _, m := range mentorships {
		ids = append(ids, m.ID)
		byID[m.ID] = m
		m.Sessions = []model.Session{}
	}

	query := `
		SELECT id, mentorship_id, rating, summary, date, created_at
		FROM sessions
		WHERE mentorship_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Session
		err := rows.Scan(&s.ID, &s.MentorshipID, &s.Rating, &s.Summary, &s.Date, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		if m, ok := byID[s.MentorshipID]; ok {
			m.Sessions = append(m.Sessions, s)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sessions: %w", err)
	}

	return nil
}
