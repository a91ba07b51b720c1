//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// ContourTracer выделяет контуры масок средствами OpenCV
type ContourTracer struct {
	MinVertices int
}

// NewContourTracer создаёт трассировщик-заглушку (без OpenCV).
func NewContourTracer() *ContourTracer {
	return &ContourTracer{MinVertices: 3}
}

// Trace возвращает ошибку, если сборка без тега gocv.
func (t *ContourTracer) Trace(ctx context.Context, mask entity.Mask, threshold uint8) ([]entity.Ring, error) {
	_ = ctx
	_ = mask
	_ = threshold
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrTracerUnavailable)
}

var _ port.MaskTracer = (*ContourTracer)(nil)
