package entity

// SessionState состояние пользователя в диалоге
type SessionState string

const (
	StateMainMenu        SessionState = "main_menu"        // В главном меню
	StateAwaitingDataset SessionState = "awaiting_dataset" // Ожидание файла датасета
	StateProcessing      SessionState = "processing"       // Обработка датасета
)

// Session диалог пользователя бота и его настройки расчёта
type Session struct {
	UserID    int64           // Telegram User ID
	ChatID    int64           // Telegram Chat ID
	State     SessionState    // Текущее состояние
	Overwrite *bool           // Пересчитывать уже посчитанные площади; nil = как в настройках
	Space     CoordinateSpace // Пространство координат в присылаемых датасетах; пусто = как в настройках
}

// NewSession создаёт сессию с начальным состоянием
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// OverwriteOr возвращает выбор пользователя или def, если он не выбирал.
func (s *Session) OverwriteOr(def bool) bool {
	if s.Overwrite == nil {
		return def
	}
	return *s.Overwrite
}

// SpaceOr возвращает выбранное пространство координат или def.
func (s *Session) SpaceOr(def CoordinateSpace) CoordinateSpace {
	if !s.Space.Valid() {
		return def
	}
	return s.Space
}
