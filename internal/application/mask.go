package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
	"area-meter/internal/logger"
)

// MaskService превращает маски объектов в замкнутые полилинии
type MaskService struct {
	tracer port.MaskTracer
	loader port.MaskLoader
	log    zerolog.Logger
}

// NewMaskService создаёт сервис. loader нужен только для масок, заданных путём к файлу.
func NewMaskService(tracer port.MaskTracer, loader port.MaskLoader, log zerolog.Logger) *MaskService {
	return &MaskService{
		tracer: tracer,
		loader: loader,
		log:    logger.Component(log, "mask"),
	}
}

// MaskOptions настройки конвертации масок
type MaskOptions struct {
	Threshold uint8 // пиксели строго больше порога считаются объектом
	Overwrite bool  // заменять уже существующее поле <field>_polylines
	NoFiles   bool  // не читать mask_path с диска
}

// ConvertMasks конвертирует маски поля field во всех сэмплах ds.
func (s *MaskService) ConvertMasks(ctx context.Context, ds *entity.Dataset, field string, opts MaskOptions) (int, []Failure, error) {
	var (
		total    int
		failures []Failure
	)
	for _, sample := range ds.Samples {
		if err := ctx.Err(); err != nil {
			return total, failures, err
		}
		if sample == nil {
			continue
		}
		n, f := s.ConvertSample(ctx, sample, field, opts)
		total += n
		failures = append(failures, f...)
	}
	return total, failures, nil
}

// ConvertSample записывает контуры масок поля field в поле <field>_polylines.
// Существующее поле полилиний не трогается без Overwrite. При перезаписи
// полилиния детекции, маску которой не удалось обработать, сохраняется, а если
// не удалось ни одной, поле остаётся прежним.
func (s *MaskService) ConvertSample(ctx context.Context, sample *entity.Sample, field string, opts MaskOptions) (int, []Failure) {
	label := sample.Fields[field]
	if label == nil || label.Type != entity.LabelDetections {
		return 0, nil
	}
	target := field + entity.PolylinesSuffix
	prev, exists := sample.Fields[target]
	if exists && !opts.Overwrite {
		return 0, nil
	}
	previous := polylinesByID(prev)

	var (
		polylines = make([]*entity.Polyline, 0, len(label.Detections))
		converted int
		failures  []Failure
	)
	for i, det := range label.Detections {
		if det == nil || !det.HasMask() {
			continue
		}
		rings, err := s.trace(ctx, det, opts)
		if err != nil {
			failures = append(failures, Failure{SampleID: sample.ID, Field: field, Index: i, Err: err})
			s.log.Warn().Err(err).Str("sample", sample.ID).Str("field", field).Int("index", i).Msg("mask skipped")
			if old, ok := previous[det.ID]; ok {
				polylines = append(polylines, old)
			}
			continue
		}
		if len(rings) == 0 {
			continue
		}
		polylines = append(polylines, &entity.Polyline{
			ID:     det.ID,
			Label:  det.Label,
			Points: ringsToPoints(rings),
			Closed: true,
			Filled: true,
		})
		converted++
	}

	if exists && converted == 0 && len(failures) > 0 {
		return 0, failures
	}
	sample.Fields[target] = &entity.Label{Type: entity.LabelPolylines, Polylines: polylines}
	return converted, failures
}

func polylinesByID(label *entity.Label) map[string]*entity.Polyline {
	if label == nil {
		return nil
	}
	byID := make(map[string]*entity.Polyline, len(label.Polylines))
	for _, pl := range label.Polylines {
		if pl != nil && pl.ID != "" {
			byID[pl.ID] = pl
		}
	}
	return byID
}

func (s *MaskService) trace(ctx context.Context, det *entity.Detection, opts MaskOptions) ([]entity.Ring, error) {
	box, err := entity.BoundingBoxFromSlice(det.BoundingBox)
	if err != nil {
		return nil, fmt.Errorf("%w: mask needs a bounding box", entity.ErrUnsupportedGeometryType)
	}

	var mask entity.Mask
	switch {
	case len(det.Mask) > 0:
		mask, err = entity.MaskFromRows(det.Mask)
	case opts.NoFiles || s.loader == nil:
		err = fmt.Errorf("%w: mask files are not supported", entity.ErrUnsupportedGeometryType)
	default:
		mask, err = s.loader.LoadMask(ctx, det.MaskPath)
	}
	if err != nil {
		return nil, err
	}

	rings, err := s.tracer.Trace(ctx, mask, opts.Threshold)
	if err != nil {
		return nil, err
	}
	return MapMaskRings(rings, mask.Width, mask.Height, box), nil
}

// MapMaskRings переводит вершины из пикселей маски в координаты рамки:
// маска растянута на рамку, поэтому x = bx + px/maskW*bw.
func MapMaskRings(rings []entity.Ring, maskW, maskH int, box entity.BoundingBox) []entity.Ring {
	sx := box.Width / float64(maskW)
	sy := box.Height / float64(maskH)

	out := make([]entity.Ring, 0, len(rings))
	for _, ring := range rings {
		mapped := make(entity.Ring, len(ring))
		for i, p := range ring {
			mapped[i] = entity.Pt(box.X+p.X()*sx, box.Y+p.Y()*sy)
		}
		out = append(out, mapped)
	}
	return out
}

func ringsToPoints(rings []entity.Ring) [][]entity.Point {
	points := make([][]entity.Point, len(rings))
	for i, r := range rings {
		points[i] = []entity.Point(r)
	}
	return points
}
