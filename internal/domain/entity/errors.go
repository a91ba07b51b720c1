package entity

import "errors"

var (
	// ErrInvalidGeometry отрицательные размеры рамки или контур короче трёх вершин
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidDimensions неположительная ширина или высота изображения
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	// ErrUnsupportedGeometryType аннотация не рамка и не многоугольник
	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")
	ErrInvalidCoordinateSpace  = errors.New("invalid coordinate space")
	ErrInvalidOptions          = errors.New("invalid options")
	ErrUnknownField            = errors.New("unknown field")
	// ErrTracerUnavailable сборка без трассировщика масок
	ErrTracerUnavailable = errors.New("mask tracer is not available")
)
