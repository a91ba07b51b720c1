package app

import (
	"context"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

type SessionService struct {
	repo     port.SessionRepository
	defaults Options
}

// NewSessionService создаёт сервис; defaults действуют, пока пользователь
// не выбрал свои настройки.
func NewSessionService(repo port.SessionRepository, defaults Options) *SessionService {
	return &SessionService{repo: repo, defaults: defaults}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	return s.update(ctx, userID, chatID, func(sess *entity.Session) {
		sess.SetState(state)
	})
}

func (s *SessionService) BeginUpload(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingDataset)
}

func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// ToggleOverwrite переключает пересчёт уже заполненных площадей.
func (s *SessionService) ToggleOverwrite(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.update(ctx, userID, chatID, func(sess *entity.Session) {
		overwrite := !sess.OverwriteOr(s.defaults.Overwrite)
		sess.Overwrite = &overwrite
	})
}

// SetSpace задаёт пространство координат присылаемых датасетов.
func (s *SessionService) SetSpace(ctx context.Context, userID, chatID int64, space entity.CoordinateSpace) (*entity.Session, error) {
	return s.update(ctx, userID, chatID, func(sess *entity.Session) {
		sess.Space = space
	})
}

// Options накладывает выбор пользователя на настройки по умолчанию.
func (s *SessionService) Options(sess *entity.Session) Options {
	opts := s.defaults
	opts.Overwrite = sess.OverwriteOr(s.defaults.Overwrite)
	opts.Space = sess.SpaceOr(s.defaults.Space)
	return opts
}

func (s *SessionService) update(ctx context.Context, userID, chatID int64, fn func(*entity.Session)) (*entity.Session, error) {
	sess, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	fn(sess)
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}
