package entity

import (
	"fmt"
	"strings"
)

// CoordinateSpace пространство, в котором заданы координаты геометрии
type CoordinateSpace string

const (
	SpaceRelative CoordinateSpace = "relative" // доли ширины/высоты изображения, [0,1]
	SpaceAbsolute CoordinateSpace = "absolute" // пиксели
)

// ParseCoordinateSpace разбирает название пространства координат.
func ParseCoordinateSpace(s string) (CoordinateSpace, error) {
	switch CoordinateSpace(strings.ToLower(strings.TrimSpace(s))) {
	case SpaceRelative:
		return SpaceRelative, nil
	case SpaceAbsolute:
		return SpaceAbsolute, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCoordinateSpace, s)
}

// Valid сообщает, известно ли пространство координат.
func (s CoordinateSpace) Valid() bool {
	return s == SpaceRelative || s == SpaceAbsolute
}

// BoundingBox прямоугольная рамка объекта
type BoundingBox struct {
	X      float64 // координата X левого верхнего угла
	Y      float64 // координата Y левого верхнего угла
	Width  float64 // ширина рамки
	Height float64 // высота рамки
}

// BoundingBoxFromSlice строит рамку из списка [x, y, w, h].
func BoundingBoxFromSlice(v []float64) (BoundingBox, error) {
	if len(v) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: bounding box needs 4 values, got %d", ErrInvalidGeometry, len(v))
	}
	return BoundingBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// Center возвращает координаты центра рамки
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Point вершина многоугольника (x, y)
type Point [2]float64

// Pt создаёт точку.
func Pt(x, y float64) Point {
	return Point{x, y}
}

// X возвращает абсциссу точки
func (p Point) X() float64 { return p[0] }

// Y возвращает ординату точки
func (p Point) Y() float64 { return p[1] }

// Ring замкнутый контур: последняя вершина неявно соединена с первой
type Ring []Point

// ImageDimensions размеры изображения в пикселях
type ImageDimensions struct {
	Width  int
	Height int
}

// Valid сообщает, что обе стороны положительны.
func (d ImageDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Pixels возвращает площадь изображения в пикселях.
func (d ImageDimensions) Pixels() float64 {
	return float64(d.Width) * float64(d.Height)
}

// AreaResult относительная и абсолютная площадь аннотации
type AreaResult struct {
	Relative float64 // доля площади изображения, [0,1]
	Absolute float64 // квадратные пиксели
}

// Mask бинарная или меточная маска, один байт на пиксель, построчно
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// MaskFromRows строит маску из двумерного массива значений.
func MaskFromRows(rows [][]int) (Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Mask{}, fmt.Errorf("%w: empty mask", ErrInvalidGeometry)
	}
	h, w := len(rows), len(rows[0])
	pix := make([]uint8, 0, w*h)
	for y, row := range rows {
		if len(row) != w {
			return Mask{}, fmt.Errorf("%w: mask row %d has %d values, want %d", ErrInvalidGeometry, y, len(row), w)
		}
		for _, v := range row {
			if v < 0 || v > 255 {
				return Mask{}, fmt.Errorf("%w: mask value %d out of range", ErrInvalidGeometry, v)
			}
			pix = append(pix, uint8(v))
		}
	}
	return Mask{Width: w, Height: h, Pix: pix}, nil
}

// Empty сообщает, что в маске нет пикселей.
func (m Mask) Empty() bool {
	return m.Width <= 0 || m.Height <= 0 || len(m.Pix) < m.Width*m.Height
}
