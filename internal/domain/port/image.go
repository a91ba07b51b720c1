package port

import (
	"context"

	"area-meter/internal/domain/entity"
)

// MetadataProvider определяет размеры изображения по файлу
type MetadataProvider interface {
	Dimensions(ctx context.Context, path string) (entity.ImageDimensions, error)
}

// MaskLoader читает маску из файла изображения
type MaskLoader interface {
	LoadMask(ctx context.Context, path string) (entity.Mask, error)
}
