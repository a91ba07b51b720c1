// Package area считает относительную и абсолютную площадь рамок и многоугольников.
//
// Все функции чистые: входная геометрия не изменяется, состояния нет,
// поэтому их можно вызывать параллельно без синхронизации.
package area

import (
	"fmt"
	"math"

	"area-meter/internal/domain/entity"
)

// BoxArea считает площадь рамки, заданной в пространстве space.
func BoxArea(box entity.BoundingBox, dims entity.ImageDimensions, space entity.CoordinateSpace) (entity.AreaResult, error) {
	if err := checkDimensions(dims); err != nil {
		return entity.AreaResult{}, err
	}
	if !(box.Width >= 0) || !(box.Height >= 0) {
		return entity.AreaResult{}, fmt.Errorf("%w: box size %gx%g", entity.ErrInvalidGeometry, box.Width, box.Height)
	}
	return convert(box.Width*box.Height, dims, space)
}

// PolygonArea считает суммарную площадь контуров по формуле шнурования.
// Дырки не вычитаются: каждый контур добавляет свою площадь.
func PolygonArea(rings []entity.Ring, dims entity.ImageDimensions, space entity.CoordinateSpace) (entity.AreaResult, error) {
	if err := checkDimensions(dims); err != nil {
		return entity.AreaResult{}, err
	}
	if len(rings) == 0 {
		return entity.AreaResult{}, fmt.Errorf("%w: no rings", entity.ErrInvalidGeometry)
	}

	var total float64
	for i, ring := range rings {
		if len(ring) < 3 {
			return entity.AreaResult{}, fmt.Errorf("%w: ring %d has %d vertices", entity.ErrInvalidGeometry, i, len(ring))
		}
		total += RingArea(ring)
	}
	return convert(total, dims, space)
}

// RingArea площадь одного замкнутого контура (формула шнурования).
// Направление обхода не важно; вырожденный контур даёт 0.
func RingArea(ring entity.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	j := n - 1
	for i := 0; i < n; i++ {
		sum += ring[j].X()*ring[i].Y() - ring[i].X()*ring[j].Y()
		j = i
	}
	return math.Abs(sum) / 2
}

// convert дополняет площадь, посчитанную в пространстве space, второй величиной.
func convert(value float64, dims entity.ImageDimensions, space entity.CoordinateSpace) (entity.AreaResult, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return entity.AreaResult{}, fmt.Errorf("%w: area is not finite", entity.ErrInvalidGeometry)
	}
	pixels := dims.Pixels()

	switch space {
	case entity.SpaceRelative:
		rel := clamp01(value)
		return entity.AreaResult{Relative: rel, Absolute: rel * pixels}, nil
	case entity.SpaceAbsolute:
		return entity.AreaResult{Relative: clamp01(value / pixels), Absolute: value}, nil
	}
	return entity.AreaResult{}, fmt.Errorf("%w: %q", entity.ErrInvalidCoordinateSpace, space)
}

// ToRelative переводит абсолютную площадь в долю площади изображения.
func ToRelative(absolute float64, dims entity.ImageDimensions) (float64, error) {
	if err := checkDimensions(dims); err != nil {
		return 0, err
	}
	return clamp01(absolute / dims.Pixels()), nil
}

// ToAbsolute переводит относительную площадь в квадратные пиксели.
func ToAbsolute(relative float64, dims entity.ImageDimensions) (float64, error) {
	if err := checkDimensions(dims); err != nil {
		return 0, err
	}
	return relative * dims.Pixels(), nil
}

func checkDimensions(dims entity.ImageDimensions) error {
	if !dims.Valid() {
		return fmt.Errorf("%w: %dx%d", entity.ErrInvalidDimensions, dims.Width, dims.Height)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
