package port

import (
	"context"

	"area-meter/internal/domain/entity"
)

// MaskTracer интерфейс трассировщика масок
type MaskTracer interface {
	// Trace выделяет внешние контуры пикселей маски со значением больше threshold.
	// Вершины возвращаются в пиксельных координатах маски и лежат на границах
	// пикселей: маска, заполненная целиком, даёт прямоугольник (0,0)-(W,H).
	Trace(ctx context.Context, mask entity.Mask, threshold uint8) ([]entity.Ring, error)
}
