package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend реализует MentorshipStore и UserDirectory поверх карт в памяти
type fakeBackend struct {
	nextID      int64
	mentorships map[int64]*model.Mentorship
	mentors     map[int64]*model.Mentor
	parents     map[int64]*model.Parent
	students    map[int64]*model.Student
	deleted     []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:      100,
		mentorships: make(map[int64]*model.Mentorship),
		mentors:     make(map[int64]*model.Mentor),
		parents:     make(map[int64]*model.Parent),
		students:    make(map[int64]*model.Student),
	}
}

func (f *fakeBackend) Create(_ context.Context, m *model.Mentorship) error {
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	f.mentorships[m.ID] = copyMentorship(m)
	return nil
}

func (f *fakeBackend) GetByID(_ context.Context, id int64) (*model.Mentorship, error) {
	m, ok := f.mentorships[id]
	if !ok {
		return nil, nil
	}
	return copyMentorship(m), nil
}

func (f *fakeBackend) GetByToken(_ context.Context, token uuid.UUID) (*model.Mentorship, error) {
	for _, m := range f.mentorships {
		if m.Token == token {
			return copyMentorship(m), nil
		}
	}
	return nil, nil
}

func (f *fakeBackend) GetByUser(_ context.Context, userID int64) ([]*model.Mentorship, error) {
	var result []*model.Mentorship
	for _, m := range f.mentorships {
		if m.Mentor.ID != userID && m.Parent.ID != userID && m.Student.ID != userID {
			continue
		}
		c := copyMentorship(m)
		if mentor, ok := f.mentors[m.Mentor.ID]; ok {
			c.Mentor = model.ResolvedRef(m.Mentor.ID, mentor)
		}
		if parent, ok := f.parents[m.Parent.ID]; ok {
			c.Parent = model.ResolvedRef(m.Parent.ID, parent)
		}
		if student, ok := f.students[m.Student.ID]; ok {
			c.Student = model.ResolvedRef(m.Student.ID, student)
		}
		result = append(result, c)
	}
	return result, nil
}

func (f *fakeBackend) FindPending(_ context.Context, parentID, studentID, mentorID int64) ([]*model.Mentorship, error) {
	var result []*model.Mentorship
	for _, m := range f.mentorships {
		if m.Parent.ID == parentID && m.Student.ID == studentID && m.Mentor.ID == mentorID && m.IsPending() {
			result = append(result, copyMentorship(m))
		}
	}
	return result, nil
}

func (f *fakeBackend) GetPendingOlderThan(_ context.Context, cutoff time.Time) ([]*model.Mentorship, error) {
	var result []*model.Mentorship
	for _, m := range f.mentorships {
		if m.IsPending() && m.CreatedAt.Before(cutoff) {
			result = append(result, copyMentorship(m))
		}
	}
	return result, nil
}

func (f *fakeBackend) UpdateStateIf(_ context.Context, id int64, expected, next model.MentorshipState, startDate, endDate *time.Time) (bool, error) {
	m, ok := f.mentorships[id]
	if !ok || m.State != expected {
		return false, nil
	}
	m.State = next
	if startDate != nil {
		m.StartDate = startDate
	}
	if endDate != nil {
		m.EndDate = endDate
	}
	now := time.Now()
	m.UpdatedAt = &now
	return true, nil
}

func (f *fakeBackend) AddSession(_ context.Context, session *model.Session) error {
	m, ok := f.mentorships[session.MentorshipID]
	if !ok {
		return errors.New("mentorship not found")
	}
	f.nextID++
	session.ID = f.nextID
	session.CreatedAt = time.Now()
	m.Sessions = append(m.Sessions, *session)
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, id int64) error {
	if _, ok := f.mentorships[id]; !ok {
		return errors.New("mentorship not found")
	}
	delete(f.mentorships, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) FindMentor(_ context.Context, id int64) (*model.Mentor, error) {
	m, ok := f.mentors[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (f *fakeBackend) FindParent(_ context.Context, id int64) (*model.Parent, error) {
	p, ok := f.parents[id]
	if !ok {
		return nil, nil
	}
	c := *p
	c.Students = nil
	for _, s := range f.students {
		if s.ParentID == p.ID {
			c.Students = append(c.Students, *s)
		}
	}
	return &c, nil
}

func (f *fakeBackend) UpdateMentorLastRequest(_ context.Context, id int64, at time.Time) error {
	m, ok := f.mentors[id]
	if !ok {
		return errors.New("mentor not found")
	}
	m.LastRequestTime = &at
	return nil
}

func copyMentorship(m *model.Mentorship) *model.Mentorship {
	c := *m
	c.Sessions = append([]model.Session{}, m.Sessions...)
	return &c
}

type sentMessage struct {
	To       notify.Recipient
	Template notify.Template
	Data     notify.Data
}

// fakeGateway записывает отправленные уведомления
type fakeGateway struct {
	sent    []sentMessage
	failErr error
}

func (g *fakeGateway) Send(_ context.Context, to notify.Recipient, tpl notify.Template, data notify.Data) error {
	if g.failErr != nil {
		return g.failErr
	}
	g.sent = append(g.sent, sentMessage{To: to, Template: tpl, Data: data})
	return nil
}

func (g *fakeGateway) templates() []notify.Template {
	result := make([]notify.Template, 0, len(g.sent))
	for _, msg := range g.sent {
		result = append(result, msg.Template)
	}
	return result
}

// newTestService собирает сервис с тестовыми участниками:
// ментор M, родитель P с учеником S
func newTestService(t *testing.T) (*MentorshipService, *fakeBackend, *fakeGateway) {
	t.Helper()

	backend := newFakeBackend()
	backend.mentors[1] = &model.Mentor{ID: 1, TelegramID: 111, Name: "Марина", Email: "marina@example.com", Available: true}
	backend.parents[2] = &model.Parent{ID: 2, TelegramID: 222, Name: "Павел", Email: "pavel@example.com"}
	backend.students[3] = &model.Student{ID: 3, ParentID: 2, Name: "Соня", GradeLevel: "7"}

	gateway := &fakeGateway{}
	svc := NewMentorshipService(backend, backend, gateway, zap.NewNop())
	return svc, backend, gateway
}

func testRequest(backend *fakeBackend) MentorshipRequest {
	student := *backend.students[3]
	return MentorshipRequest{
		Parent:  backend.parents[2],
		Student: &student,
		Mentor:  backend.mentors[1],
		Message: "Hello",
	}
}

func TestSendRequest_CreatesPendingMentorship(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, model.StatePending, m.State)
	assert.Empty(t, m.Sessions)
	assert.Nil(t, m.StartDate)
	assert.Nil(t, m.EndDate)
	assert.NotEqual(t, uuid.Nil, m.Token)
	assert.Equal(t, "Hello", m.Message)

	stored, err := backend.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatePending, stored.State)

	// Уведомления: сначала ментору, потом подтверждение родителю
	require.Len(t, gateway.sent, 2)
	assert.Equal(t, notify.TemplateRequestMentor, gateway.sent[0].Template)
	assert.Equal(t, int64(111), gateway.sent[0].To.TelegramID)
	assert.Equal(t, notify.TemplateRequestParent, gateway.sent[1].Template)
	assert.Equal(t, int64(222), gateway.sent[1].To.TelegramID)

	// Время последнего запроса ментора обновлено
	require.NotNil(t, backend.mentors[1].LastRequestTime)
	assert.WithinDuration(t, time.Now(), *backend.mentors[1].LastRequestTime, 2*time.Second)
}

func TestSendRequest_ValidationFailsFast(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*MentorshipRequest)
	}{
		{"nil mentor", func(r *MentorshipRequest) { r.Mentor = nil }},
		{"mentor without id", func(r *MentorshipRequest) { r.Mentor = &model.Mentor{} }},
		{"nil parent", func(r *MentorshipRequest) { r.Parent = nil }},
		{"parent without id", func(r *MentorshipRequest) { r.Parent = &model.Parent{} }},
		{"nil student", func(r *MentorshipRequest) { r.Student = nil }},
		{"student without id", func(r *MentorshipRequest) { r.Student = &model.Student{} }},
		{"empty message", func(r *MentorshipRequest) { r.Message = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(backend)
			tt.mutate(&req)

			_, err := svc.SendRequest(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Fail-fast: ничего не создано и не отправлено
	assert.Empty(t, backend.mentorships)
	assert.Empty(t, gateway.sent)
}

func TestSendRequest_ObservationalChecksDoNotBlock(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	// Первый запрос и его дубликат
	first, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, testRequest(backend))
	assert.NoError(t, err, "duplicate pending request is not blocked")

	// Отклонённая история с этим же ментором тоже не блокирует
	_, err = svc.RejectRequest(ctx, first.ID, false)
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, testRequest(backend))
	assert.NoError(t, err, "prior rejection by the mentor is not blocked")

	// Активное менторство ученика тоже не блокирует новый запрос
	pending, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, pending.ID))

	_, err = svc.SendRequest(ctx, testRequest(backend))
	assert.NoError(t, err, "active mentorship does not block a new request")
}

func TestSendRequest_GatewayFailureIsSwallowed(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	gateway.failErr = errors.New("telegram is down")

	m, err := svc.SendRequest(context.Background(), testRequest(backend))
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, m.State)
	assert.NotEmpty(t, backend.mentorships)
}

func TestAcceptRequest_ActivatesMentorship(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	gateway.sent = nil

	require.NoError(t, svc.AcceptRequest(ctx, m.ID))

	stored, err := backend.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, stored.State)
	require.NotNil(t, stored.StartDate)
	assert.WithinDuration(t, time.Now(), *stored.StartDate, 2*time.Second)
	assert.Nil(t, stored.EndDate)

	assert.Equal(t, []notify.Template{notify.TemplateAcceptedMentor, notify.TemplateAcceptedParent}, gateway.templates())
}

func TestAcceptRequest_TwiceFails(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	require.NoError(t, svc.AcceptRequest(ctx, m.ID))
	err = svc.AcceptRequest(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptRequest_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.AcceptRequest(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectRequest(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	gateway.sent = nil

	rejected, err := svc.RejectRequest(ctx, m.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, rejected.State)
	assert.Nil(t, rejected.StartDate)
	assert.Nil(t, rejected.EndDate)

	assert.Equal(t, []notify.Template{notify.TemplateRejectedMentor, notify.TemplateRejectedParent}, gateway.templates())

	// Принять отклонённый запрос нельзя
	err = svc.AcceptRequest(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectRequest_WithoutNotification(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	gateway.sent = nil

	_, err = svc.RejectRequest(ctx, m.ID, false)
	require.NoError(t, err)
	assert.Empty(t, gateway.sent)
}

func TestArchiveMentorship(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, m.ID))
	gateway.sent = nil

	archived, err := svc.ArchiveMentorship(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateArchived, archived.State)
	require.NotNil(t, archived.EndDate)
	assert.WithinDuration(t, time.Now(), *archived.EndDate, 2*time.Second)

	// Архивирование — административный переход, без уведомлений
	assert.Empty(t, gateway.sent)
}

func TestArchiveMentorship_OnlyFromActive(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	pending, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	_, err = svc.ArchiveMentorship(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "cannot archive pending")

	rejected, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	_, err = svc.RejectRequest(ctx, rejected.ID, false)
	require.NoError(t, err)

	_, err = svc.ArchiveMentorship(ctx, rejected.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "cannot archive rejected")

	active, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, active.ID))
	_, err = svc.ArchiveMentorship(ctx, active.ID)
	require.NoError(t, err)

	_, err = svc.ArchiveMentorship(ctx, active.ID)
	assert.ErrorIs(t, err, ErrInvalidState, "cannot archive twice")

	_, err = svc.ArchiveMentorship(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddSessionToMentorship_RatingBounds(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, m.ID))

	_, err = svc.AddSessionToMentorship(ctx, &model.Session{Rating: -0.01, Date: time.Now()}, m.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddSessionToMentorship(ctx, &model.Session{Rating: 1.01, Date: time.Now()}, m.ID)
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.AddSessionToMentorship(ctx, &model.Session{Rating: 0, Date: time.Now()}, m.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Sessions, 1)

	updated, err = svc.AddSessionToMentorship(ctx, &model.Session{Rating: 1, Date: time.Now()}, m.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Sessions, 2)

	stored, err := backend.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Sessions, 2)
	assert.Equal(t, float64(0), stored.Sessions[0].Rating)
	assert.Equal(t, float64(1), stored.Sessions[1].Rating)
}

func TestAddSessionToMentorship_OnlyWhenActive(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	_, err = svc.AddSessionToMentorship(ctx, &model.Session{Rating: 0.5, Date: time.Now()}, m.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.AddSessionToMentorship(ctx, &model.Session{Rating: 0.5, Date: time.Now()}, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLifecycleScenario(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	// Родитель P отправляет запрос ментору M за ученика S
	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, m.State)
	assert.Empty(t, m.Sessions)

	// Ментор принимает: ACTIVE, startDate установлен, уведомления обоим
	gateway.sent = nil
	require.NoError(t, svc.AcceptRequest(ctx, m.ID))
	stored, _ := backend.GetByID(ctx, m.ID)
	assert.Equal(t, model.StateActive, stored.State)
	assert.NotNil(t, stored.StartDate)
	assert.Len(t, gateway.sent, 2)

	// Менторство завершается: ARCHIVED, endDate установлен
	archived, err := svc.ArchiveMentorship(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateArchived, archived.State)
	assert.NotNil(t, archived.EndDate)

	// Запись не удалена
	stored, _ = backend.GetByID(ctx, m.ID)
	require.NotNil(t, stored)
	assert.Empty(t, backend.deleted)
}

func TestGetCurrentMentorships_RemovesDanglingReferences(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	kept, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	// Запрос другому ментору, который потом удаляется
	backend.mentors[9] = &model.Mentor{ID: 9, TelegramID: 999, Name: "Олег", Email: "oleg@example.com"}
	req := testRequest(backend)
	req.Mentor = backend.mentors[9]
	orphaned, err := svc.SendRequest(ctx, req)
	require.NoError(t, err)

	delete(backend.mentors, 9)

	mentorships, err := svc.GetCurrentMentorships(ctx, 3)
	require.NoError(t, err)

	require.Len(t, mentorships, 1)
	assert.Equal(t, kept.ID, mentorships[0].ID)
	assert.True(t, mentorships[0].Mentor.IsResolved())
	assert.True(t, mentorships[0].Parent.IsResolved())
	assert.True(t, mentorships[0].Student.IsResolved())

	// Осиротевшая запись удалена из хранилища
	gone, err := backend.GetByID(ctx, orphaned.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Contains(t, backend.deleted, orphaned.ID)
}

func TestResolveParticipants_FallsBackToDirectory(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	// Запись с голыми идентификаторами
	bare, err := backend.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, bare.Mentor.IsResolved())

	participants, err := svc.ResolveParticipants(ctx, bare)
	require.NoError(t, err)
	assert.Equal(t, "Марина", participants.Mentor.Name)
	assert.Equal(t, "Павел", participants.Parent.Name)
	assert.Equal(t, "Соня", participants.Student.Name)
}

func TestResolveParticipants_StudentMissingFromRoster(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	// Ученик пропал из списка детей родителя — повреждение данных
	delete(backend.students, 3)

	bare, err := backend.GetByID(ctx, m.ID)
	require.NoError(t, err)

	_, err = svc.ResolveParticipants(ctx, bare)
	assert.ErrorIs(t, err, ErrDependency)
}

func TestNotifyStalePending(t *testing.T) {
	svc, backend, gateway := newTestService(t)
	ctx := context.Background()

	stale, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	backend.mentorships[stale.ID].CreatedAt = time.Now().Add(-5 * 24 * time.Hour)

	_, err = svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)
	gateway.sent = nil

	require.NoError(t, svc.NotifyStalePending(ctx, 3*24*time.Hour))

	require.Len(t, gateway.sent, 1)
	assert.Equal(t, notify.TemplateRequestReminder, gateway.sent[0].Template)
	assert.Equal(t, int64(111), gateway.sent[0].To.TelegramID)
	assert.Equal(t, stale.Token, gateway.sent[0].Data.Token)
}

func TestGetByToken(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.SendRequest(ctx, testRequest(backend))
	require.NoError(t, err)

	found, err := svc.GetByToken(ctx, m.Token)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)

	_, err = svc.GetByToken(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
