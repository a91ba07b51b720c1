package port

import (
	"context"

	"area-meter/internal/domain/entity"
)

// DatasetRepository интерфейс хранилища датасетов
type DatasetRepository interface {
	// Load читает датасет по пути
	Load(ctx context.Context, path string) (*entity.Dataset, error)

	// Save записывает датасет по пути
	Save(ctx context.Context, path string, ds *entity.Dataset) error
}

// DatasetCodec кодирует датасет в формат, выбранный по имени файла
type DatasetCodec interface {
	Decode(name string, data []byte) (*entity.Dataset, error)
	Encode(name string, ds *entity.Dataset) ([]byte, error)
}
