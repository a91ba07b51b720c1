//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// ContourTracer выделяет контуры масок средствами OpenCV
type ContourTracer struct {
	// MinVertices контуры с меньшим числом вершин отбрасываются
	MinVertices int
}

// NewContourTracer создаёт трассировщик масок.
func NewContourTracer() *ContourTracer {
	return &ContourTracer{MinVertices: 3}
}

// Trace порогует маску и возвращает внешние контуры в пикселях маски.
// Вершины лежат на границах пикселей: полностью заполненная маска W x H
// даёт прямоугольник (0,0)-(W,H).
func (t *ContourTracer) Trace(ctx context.Context, mask entity.Mask, threshold uint8) ([]entity.Ring, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mask.Empty() {
		return nil, errors.New("empty mask")
	}

	mat, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, mask.Pix[:mask.Width*mask.Height])
	if err != nil {
		return nil, fmt.Errorf("mask to mat: %w", err)
	}
	defer mat.Close()

	// Всё, что выше порога, становится 255, остальное 0.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(mat, &binary, float32(threshold), 255, gocv.ThresholdBinary)

	edges, err := gocv.NewMatFromBytes(2*mask.Height+1, 2*mask.Width+1, gocv.MatTypeCV8U, edgeGrid(binary.ToBytes(), mask.Width, mask.Height))
	if err != nil {
		return nil, fmt.Errorf("edge grid to mat: %w", err)
	}
	defer edges.Close()

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	rings := make([]entity.Ring, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		if len(pts) < t.MinVertices {
			continue
		}
		ring := make(entity.Ring, 0, len(pts))
		for _, p := range pts {
			ring = append(ring, entity.Pt(float64(p.X)/2, float64(p.Y)/2))
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

var _ port.MaskTracer = (*ContourTracer)(nil)
