package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MentorshipService отвечает за создание, обновление и архивирование
// менторств. Не отвечает за авторизацию вызывающего и за доставку
// сообщений — это забота контроллера и шлюза уведомлений.
//
// Запрос на менторство может отправить только родитель, от имени своего
// ученика. У ученика может быть только одно активное менторство, но
// несколько запросов одновременно. Ментор может вести несколько активных
// менторств сразу.
//
// Завершённое менторство архивируется, а не удаляется: история нужна для
// метрик вовлечённости.
type MentorshipService struct {
	store     MentorshipStore
	directory UserDirectory
	gateway   NotificationGateway
	logger    *zap.Logger
}

func NewMentorshipService(
	store MentorshipStore,
	directory UserDirectory,
	gateway NotificationGateway,
	logger *zap.Logger,
) *MentorshipService {
	return &MentorshipService{
		store:     store,
		directory: directory,
		gateway:   gateway,
		logger:    logger,
	}
}

// MentorshipRequest contains information about the members of the requested
// mentorship.
type MentorshipRequest struct {
	Parent  *model.Parent
	Student *model.Student
	Mentor  *model.Mentor
	Message string
}

// Participants полностью загруженные участники менторства
type Participants struct {
	Mentor  *model.Mentor
	Parent  *model.Parent
	Student *model.Student
}

// SendRequest отправляет запрос на менторство выбранному ментору и
// подтверждение родителю. Создаёт запись в состоянии PENDING, уведомляет
// ментора, обновляет время последнего запроса ментора и уведомляет родителя.
func (s *MentorshipService) SendRequest(ctx context.Context, req MentorshipRequest) (*model.Mentorship, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	mentorship := &model.Mentorship{
		Token:    uuid.New(),
		State:    model.StatePending,
		Message:  req.Message,
		Mentor:   model.NewRef[model.Mentor](req.Mentor.ID),
		Parent:   model.NewRef[model.Parent](req.Parent.ID),
		Student:  model.NewRef[model.Student](req.Student.ID),
		Sessions: []model.Session{},
	}

	if err := s.store.Create(ctx, mentorship); err != nil {
		return nil, fmt.Errorf("%w: create mentorship: %w", ErrDependency, err)
	}

	mentor, err := s.directory.FindMentor(ctx, req.Mentor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find mentor: %w", ErrDependency, err)
	}
	if mentor == nil {
		return nil, fmt.Errorf("%w: mentor %d", ErrNotFound, req.Mentor.ID)
	}

	data := notify.Data{
		MentorName:  mentor.Name,
		ParentName:  req.Parent.Name,
		StudentName: req.Student.Name,
		Message:     req.Message,
		Token:       mentorship.Token,
	}
	s.send(ctx, recipient(mentor.Name, mentor.TelegramID), notify.TemplateRequestMentor, data)

	if err := s.directory.UpdateMentorLastRequest(ctx, mentor.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: update mentor last request time: %w", ErrDependency, err)
	}

	parent, err := s.directory.FindParent(ctx, req.Parent.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find parent: %w", ErrDependency, err)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: parent %d", ErrNotFound, req.Parent.ID)
	}
	s.send(ctx, recipient(parent.Name, parent.TelegramID), notify.TemplateRequestParent, data)

	s.logger.Info("Mentorship request created",
		zap.Int64("mentorship_id", mentorship.ID),
		zap.Int64("parent_id", req.Parent.ID),
		zap.Int64("student_id", req.Student.ID),
		zap.Int64("mentor_id", req.Mentor.ID),
	)

	return mentorship, nil
}

// validateRequest проверяет обязательные поля запроса. Дальше идут только
// наблюдательные проверки: подозрительные запросы фиксируются в логах, но
// создание не блокируется. Если у ученика уже есть активное менторство,
// остальные проверки пропускаются.
func (s *MentorshipService) validateRequest(ctx context.Context, req MentorshipRequest) error {
	if req.Mentor == nil || req.Mentor.ID == 0 {
		return fmt.Errorf("%w: mentor has no id", ErrValidation)
	}
	if req.Parent == nil || req.Parent.ID == 0 {
		return fmt.Errorf("%w: parent has no id", ErrValidation)
	}
	if req.Student == nil || req.Student.ID == 0 {
		return fmt.Errorf("%w: student has no id", ErrValidation)
	}
	if len(req.Message) == 0 {
		return fmt.Errorf("%w: empty mentorship request message", ErrValidation)
	}

	mentorships, err := s.GetCurrentMentorships(ctx, req.Student.ID)
	if err != nil {
		return fmt.Errorf("%w: get student mentorships: %w", ErrDependency, err)
	}

	for _, m := range mentorships {
		if m.IsActive() {
			s.logger.Warn("Student already has an active mentorship",
				zap.Int64("student_id", req.Student.ID),
				zap.Int64("active_mentorship_id", m.ID),
			)
			return nil
		}
	}

	pending, err := s.store.FindPending(ctx, req.Parent.ID, req.Student.ID, req.Mentor.ID)
	if err != nil {
		return fmt.Errorf("%w: find pending mentorships: %w", ErrDependency, err)
	}
	if len(pending) > 0 {
		s.logger.Warn("Duplicate pending mentorship request",
			zap.Int64("student_id", req.Student.ID),
			zap.Int64("mentor_id", req.Mentor.ID),
		)
		return nil
	}

	for _, m := range mentorships {
		if m.IsRejected() && m.Mentor.ID == req.Mentor.ID {
			s.logger.Warn("Student was previously rejected by this mentor",
				zap.Int64("student_id", req.Student.ID),
				zap.Int64("mentor_id", req.Mentor.ID),
			)
			return nil
		}
	}

	return nil
}

// AcceptRequest принимает запрос на менторство от имени ментора. Принять
// можно только запрос в состоянии PENDING; повторное принятие возвращает
// ErrInvalidState. Переход фиксируется до отправки уведомлений, сбой
// уведомлений не откатывает его.
func (s *MentorshipService) AcceptRequest(ctx context.Context, mentorshipID int64) error {
	mentorship, err := s.store.GetByID(ctx, mentorshipID)
	if err != nil {
		return fmt.Errorf("%w: get mentorship: %w", ErrDependency, err)
	}
	if mentorship == nil {
		return fmt.Errorf("%w: mentorship %d", ErrNotFound, mentorshipID)
	}
	if !mentorship.IsPending() {
		return fmt.Errorf("%w: cannot accept mentorship in state %s", ErrInvalidState, mentorship.State)
	}

	now := time.Now()
	applied, err := s.store.UpdateStateIf(ctx, mentorshipID, model.StatePending, model.StateActive, &now, nil)
	if err != nil {
		return fmt.Errorf("%w: accept mentorship: %w", ErrDependency, err)
	}
	if !applied {
		// Состояние изменилось между чтением и записью
		return fmt.Errorf("%w: mentorship %d is no longer pending", ErrInvalidState, mentorshipID)
	}

	s.logger.Info("Mentorship accepted", zap.Int64("mentorship_id", mentorshipID))

	participants, err := s.ResolveParticipants(ctx, mentorship)
	if err != nil {
		// Переход уже зафиксирован, уведомления best-effort
		s.logger.Error("Failed to resolve participants for accept notification",
			zap.Int64("mentorship_id", mentorshipID),
			zap.Error(err),
		)
		return nil
	}

	data := participantData(participants, mentorship)
	s.send(ctx, recipient(participants.Mentor.Name, participants.Mentor.TelegramID), notify.TemplateAcceptedMentor, data)
	s.send(ctx, recipient(participants.Parent.Name, participants.Parent.TelegramID), notify.TemplateAcceptedParent, data)

	return nil
}

// RejectRequest отклоняет запрос на менторство от имени ментора. Отклонить
// можно только запрос в состоянии PENDING. Если notifyParties истинно,
// обе стороны получают уведомление.
func (s *MentorshipService) RejectRequest(ctx context.Context, mentorshipID int64, notifyParties bool) (*model.Mentorship, error) {
	mentorship, err := s.store.GetByID(ctx, mentorshipID)
	if err != nil {
		return nil, fmt.Errorf("%w: get mentorship: %w", ErrDependency, err)
	}
	if mentorship == nil {
		return nil, fmt.Errorf("%w: mentorship %d", ErrNotFound, mentorshipID)
	}
	if !mentorship.IsPending() {
		return nil, fmt.Errorf("%w: cannot reject mentorship in state %s", ErrInvalidState, mentorship.State)
	}

	applied, err := s.store.UpdateStateIf(ctx, mentorshipID, model.StatePending, model.StateRejected, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: reject mentorship: %w", ErrDependency, err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: mentorship %d is no longer pending", ErrInvalidState, mentorshipID)
	}

	mentorship.State = model.StateRejected

	s.logger.Info("Mentorship rejected", zap.Int64("mentorship_id", mentorshipID))

	if notifyParties {
		participants, err := s.ResolveParticipants(ctx, mentorship)
		if err != nil {
			s.logger.Error("Failed to resolve participants for reject notification",
				zap.Int64("mentorship_id", mentorshipID),
				zap.Error(err),
			)
			return mentorship, nil
		}

		data := participantData(participants, mentorship)
		s.send(ctx, recipient(participants.Mentor.Name, participants.Mentor.TelegramID), notify.TemplateRejectedMentor, data)
		s.send(ctx, recipient(participants.Parent.Name, participants.Parent.TelegramID), notify.TemplateRejectedParent, data)
	}

	return mentorship, nil
}

// ArchiveMentorship завершает активное менторство. Архивирование —
// административный переход, уведомления не отправляются.
func (s *MentorshipService) ArchiveMentorship(ctx context.Context, mentorshipID int64) (*model.Mentorship, error) {
	mentorship, err := s.store.GetByID(ctx, mentorshipID)
	if err != nil {
		return nil, fmt.Errorf("%w: get mentorship: %w", ErrDependency, err)
	}
	if mentorship == nil {
		return nil, fmt.Errorf("%w: mentorship %d", ErrNotFound, mentorshipID)
	}
	if !mentorship.IsActive() {
		return nil, fmt.Errorf("%w: cannot archive mentorship in state %s", ErrInvalidState, mentorship.State)
	}

	now := time.Now()
	applied, err := s.store.UpdateStateIf(ctx, mentorshipID, model.StateActive, model.StateArchived, nil, &now)
	if err != nil {
		return nil, fmt.Errorf("%w: archive mentorship: %w", ErrDependency, err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: mentorship %d is no longer active", ErrInvalidState, mentorshipID)
	}

	mentorship.State = model.StateArchived
	mentorship.EndDate = &now

	s.logger.Info("Mentorship archived", zap.Int64("mentorship_id", mentorshipID))

	return mentorship, nil
}

// AddSessionToMentorship добавляет сессию к активному менторству
func (s *MentorshipService) AddSessionToMentorship(ctx context.Context, session *model.Session, mentorshipID int64) (*model.Mentorship, error) {
	if !session.RatingInRange() {
		return nil, fmt.Errorf("%w: session rating out of range: %v", ErrValidation, session.Rating)
	}

	mentorship, err := s.store.GetByID(ctx, mentorshipID)
	if err != nil {
		return nil, fmt.Errorf("%w: get mentorship: %w", ErrDependency, err)
	}
	if mentorship == nil {
		return nil, fmt.Errorf("%w: mentorship %d", ErrNotFound, mentorshipID)
	}
	if !mentorship.IsActive() {
		return nil, fmt.Errorf("%w: cannot add a session to mentorship in state %s", ErrInvalidState, mentorship.State)
	}

	session.MentorshipID = mentorshipID
	if err := s.store.AddSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: add session: %w", ErrDependency, err)
	}

	mentorship.Sessions = append(mentorship.Sessions, *session)

	s.logger.Info("Session added to mentorship",
		zap.Int64("mentorship_id", mentorshipID),
		zap.Float64("rating", session.Rating),
	)

	return mentorship, nil
}

// GetCurrentMentorships возвращает менторства, где пользователь выступает
// родителем, ментором или учеником. Записи с битыми ссылками (участник
// удалён) попутно удаляются из хранилища и в результат не попадают.
func (s *MentorshipService) GetCurrentMentorships(ctx context.Context, userID int64) ([]*model.Mentorship, error) {
	mentorships, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get mentorships by user: %w", ErrDependency, err)
	}

	result := make([]*model.Mentorship, 0, len(mentorships))
	for _, m := range mentorships {
		if m.Mentor.IsResolved() && m.Parent.IsResolved() && m.Student.IsResolved() {
			result = append(result, m)
			continue
		}

		// Один из участников удалён — чистим осиротевшую запись
		s.logger.Warn("Removing mentorship with dangling references",
			zap.Int64("mentorship_id", m.ID),
			zap.Bool("mentor_resolved", m.Mentor.IsResolved()),
			zap.Bool("parent_resolved", m.Parent.IsResolved()),
			zap.Bool("student_resolved", m.Student.IsResolved()),
		)
		if err := s.store.Delete(ctx, m.ID); err != nil {
			s.logger.Error("Failed to delete orphaned mentorship",
				zap.Int64("mentorship_id", m.ID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// GetByToken находит менторство по токену из callback-кнопки
func (s *MentorshipService) GetByToken(ctx context.Context, token uuid.UUID) (*model.Mentorship, error) {
	mentorship, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: get mentorship by token: %w", ErrDependency, err)
	}
	if mentorship == nil {
		return nil, fmt.Errorf("%w: mentorship token %s", ErrNotFound, token)
	}
	return mentorship, nil
}

// ResolveParticipants возвращает полностью загруженных участников. Если
// ссылки не разрешены, участники добираются из справочника, а ученик
// ищется в списке детей родителя. Отсутствие ученика у родителя означает
// повреждение данных, а не ошибку пользователя.
func (s *MentorshipService) ResolveParticipants(ctx context.Context, mentorship *model.Mentorship) (*Participants, error) {
	if mentorship.Mentor.IsResolved() && mentorship.Parent.IsResolved() && mentorship.Student.IsResolved() {
		return &Participants{
			Mentor:  mentorship.Mentor.Resolved,
			Parent:  mentorship.Parent.Resolved,
			Student: mentorship.Student.Resolved,
		}, nil
	}

	mentor, err := s.directory.FindMentor(ctx, mentorship.Mentor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find mentor: %w", ErrDependency, err)
	}
	if mentor == nil {
		return nil, fmt.Errorf("%w: mentor %d", ErrNotFound, mentorship.Mentor.ID)
	}

	parent, err := s.directory.FindParent(ctx, mentorship.Parent.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find parent: %w", ErrDependency, err)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: parent %d", ErrNotFound, mentorship.Parent.ID)
	}

	student := parent.FindStudent(mentorship.Student.ID)
	if student == nil {
		return nil, fmt.Errorf("%w: student %d missing from parent %d roster",
			ErrDependency, mentorship.Student.ID, parent.ID)
	}

	return &Participants{
		Mentor:  mentor,
		Parent:  parent,
		Student: student,
	}, nil
}

// NotifyStalePending напоминает менторам о запросах, висящих в PENDING
// дольше olderThan. Используется фоновым планировщиком.
func (s *MentorshipService) NotifyStalePending(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	pending, err := s.store.GetPendingOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%w: get stale pending mentorships: %w", ErrDependency, err)
	}

	for _, m := range pending {
		participants, err := s.ResolveParticipants(ctx, m)
		if err != nil {
			s.logger.Warn("Skipping reminder for unresolvable mentorship",
				zap.Int64("mentorship_id", m.ID),
				zap.Error(err),
			)
			continue
		}

		data := participantData(participants, m)
		s.send(ctx, recipient(participants.Mentor.Name, participants.Mentor.TelegramID), notify.TemplateRequestReminder, data)
	}

	return nil
}

// send отправляет уведомление. Сбой доставки логируется и проглатывается:
// корректность жизненного цикла не зависит от доступности шлюза.
func (s *MentorshipService) send(ctx context.Context, to notify.Recipient, tpl notify.Template, data notify.Data) {
	if err := s.gateway.Send(ctx, to, tpl, data); err != nil {
		s.logger.Warn("Failed to send notification",
			zap.String("template", string(tpl)),
			zap.String("recipient", to.Name),
			zap.Error(err),
		)
	}
}

func recipient(name string, telegramID int64) notify.Recipient {
	return notify.Recipient{Name: name, TelegramID: telegramID}
}

func participantData(p *Participants, m *model.Mentorship) notify.Data {
	return notify.Data{
		MentorName:  p.Mentor.Name,
		ParentName:  p.Parent.Name,
		StudentName: p.Student.Name,
		Message:     m.Message,
		Token:       m.Token,
	}
}
