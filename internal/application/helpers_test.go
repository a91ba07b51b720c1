package app

import (
	"context"
	"errors"

	"area-meter/internal/domain/entity"
)

// fullTracer возвращает контур по краю всей маски
type fullTracer struct {
	err   error
	calls int
}

func (t *fullTracer) Trace(ctx context.Context, mask entity.Mask, threshold uint8) ([]entity.Ring, error) {
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	w, h := float64(mask.Width), float64(mask.Height)
	return []entity.Ring{{entity.Pt(0, 0), entity.Pt(w, 0), entity.Pt(w, h), entity.Pt(0, h)}}, nil
}

type fakeLoader struct {
	masks map[string]entity.Mask
}

func (l *fakeLoader) LoadMask(ctx context.Context, path string) (entity.Mask, error) {
	m, ok := l.masks[path]
	if !ok {
		return entity.Mask{}, errors.New("no such mask")
	}
	return m, nil
}

type fakeMetadata struct {
	dims map[string]entity.ImageDimensions
}

func (m *fakeMetadata) Dimensions(ctx context.Context, path string) (entity.ImageDimensions, error) {
	d, ok := m.dims[path]
	if !ok {
		return entity.ImageDimensions{}, errors.New("no such image")
	}
	return d, nil
}

func detections(dets ...*entity.Detection) *entity.Label {
	return &entity.Label{Type: entity.LabelDetections, Detections: dets}
}

func polylines(pls ...*entity.Polyline) *entity.Label {
	return &entity.Label{Type: entity.LabelPolylines, Polylines: pls}
}

func box(x, y, w, h float64) *entity.Detection {
	return &entity.Detection{Label: "obj", BoundingBox: []float64{x, y, w, h}}
}

func sample(id string, w, h int, fields map[string]*entity.Label) *entity.Sample {
	return &entity.Sample{ID: id, Metadata: &entity.Metadata{Width: w, Height: h}, Fields: fields}
}
