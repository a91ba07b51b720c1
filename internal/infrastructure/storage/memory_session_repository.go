package storage

import (
	"context"
	"sync"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий.
// Сессии хранятся копиями: изменения видны другим только после Save.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]entity.Session),
	}
}

// Get возвращает сессию пользователя, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[userID]
	if !exists {
		s = *entity.NewSession(userID, chatID)
		r.sessions[userID] = s
	}
	// Пользователь мог написать из другого чата
	s.ChatID = chatID
	return &s, nil
}

// Save сохраняет сессию
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	r.sessions[session.UserID] = *session
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние сессии
func (r *MemorySessionRepository) UpdateState(ctx context.Context, userID int64, state entity.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.sessions[userID]; exists {
		s.SetState(state)
		r.sessions[userID] = s
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
