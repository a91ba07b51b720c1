package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// FileDatasetRepository хранит датасеты в файлах JSON/YAML
type FileDatasetRepository struct {
	codec *Codec
}

// NewFileDatasetRepository создаёт файловое хранилище
func NewFileDatasetRepository(codec *Codec) *FileDatasetRepository {
	return &FileDatasetRepository{codec: codec}
}

// Load читает датасет из файла
func (r *FileDatasetRepository) Load(ctx context.Context, path string) (*entity.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return r.codec.Decode(path, data)
}

// Save записывает датасет во временный файл и переименовывает его,
// чтобы прерванная запись не портила исходный файл.
func (r *FileDatasetRepository) Save(ctx context.Context, path string, ds *entity.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := r.codec.Encode(path, ds)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}

var _ port.DatasetRepository = (*FileDatasetRepository)(nil)
