package app

import (
	"fmt"
	"math"
	"strings"

	"area-meter/internal/domain/entity"
)

// Options настройки пакетного расчёта площадей
type Options struct {
	Fields          []string               // целевые поля; пусто = все поля с рамками и полилиниями
	Overwrite       bool                   // пересчитывать уже заполненные атрибуты
	Space           entity.CoordinateSpace // пространство координат хранимой геометрии
	ConvertMasks    bool                   // превращать маски в поле <field>_polylines
	MaskThreshold   uint8                  // пиксели маски строго больше порога считаются объектом
	ComputeMetadata bool                   // дочитывать размеры изображения из файла
	Workers         int                    // сколько сэмплов обрабатывать одновременно
	NoFiles         bool                   // не открывать файлы, указанные в датасете (filepath, mask_path)
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{
		Space:   entity.SpaceRelative,
		Workers: 1,
	}
}

// Validate проверяет настройки один раз перед запуском.
func (o Options) Validate() error {
	if !o.Space.Valid() {
		return fmt.Errorf("%w: coordinate space %q", entity.ErrInvalidOptions, o.Space)
	}
	if o.MaskThreshold == math.MaxUint8 {
		return fmt.Errorf("%w: mask threshold %d leaves no foreground", entity.ErrInvalidOptions, o.MaskThreshold)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", entity.ErrInvalidOptions, o.Workers)
	}
	seen := make(map[string]struct{}, len(o.Fields))
	for _, f := range o.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: empty field name", entity.ErrInvalidOptions)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: field %q listed twice", entity.ErrInvalidOptions, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

func (o Options) maskOptions() MaskOptions {
	return MaskOptions{Threshold: o.MaskThreshold, Overwrite: o.Overwrite, NoFiles: o.NoFiles}
}
