package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"area-meter/internal/domain/area"
	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
	"area-meter/internal/logger"
)

// AreaService записывает площади рамок и многоугольников в аннотации датасета
type AreaService struct {
	masks    *MaskService
	metadata port.MetadataProvider
	datasets port.DatasetRepository
	codec    port.DatasetCodec
	log      zerolog.Logger
}

// NewAreaService создаёт сервис. metadata, datasets и codec могут быть nil,
// тогда соответствующие возможности недоступны.
func NewAreaService(masks *MaskService, metadata port.MetadataProvider, datasets port.DatasetRepository, codec port.DatasetCodec, log zerolog.Logger) *AreaService {
	return &AreaService{
		masks:    masks,
		metadata: metadata,
		datasets: datasets,
		codec:    codec,
		log:      logger.Component(log, "area"),
	}
}

// plan разрешённые один раз на весь запуск настройки
type plan struct {
	opts     Options
	fields   []string
	explicit map[string]bool
	masks    []string // поля с масками для конвертации
}

// UpdateDataset считает площади для всех подходящих аннотаций ds.
// Ошибки отдельных аннотаций попадают в отчёт и не прерывают обработку;
// ошибка возвращается только для неверных настроек или отмены контекста.
func (s *AreaService) UpdateDataset(ctx context.Context, ds *entity.Dataset, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ConvertMasks && s.masks == nil {
		return nil, fmt.Errorf("%w: mask conversion is not configured", entity.ErrInvalidOptions)
	}
	p, err := s.resolve(ds, opts)
	if err != nil {
		return nil, err
	}

	results := make([]sampleReport, len(ds.Samples))
	done := make([]bool, len(ds.Samples))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processSample(ctx, ds.Samples[i], p)
				done[i] = true
			}
		}()
	}

feed:
	for i, sample := range ds.Samples {
		if sample == nil {
			continue
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report := &Report{}
	for i := range results {
		if done[i] {
			report.merge(results[i])
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.log.Info().
		Int("samples", report.Samples).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("converted", report.Converted).
		Int("failed", len(report.Failures)).
		Msg("dataset updated")
	return report, nil
}

// ProcessFile читает датасет из in, считает площади и записывает в out.
// Пустой out означает перезапись исходного файла.
func (s *AreaService) ProcessFile(ctx context.Context, in, out string, opts Options) (*Report, error) {
	if s.datasets == nil {
		return nil, errors.New("dataset repository is not configured")
	}
	if out == "" {
		out = in
	}

	ds, err := s.datasets.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	report, err := s.UpdateDataset(ctx, ds, opts)
	if err != nil {
		return report, err
	}
	if err := s.datasets.Save(ctx, out, ds); err != nil {
		return report, err
	}
	return report, nil
}

// ProcessDocument обрабатывает датасет, присланный как файл name, и
// возвращает его в том же формате.
func (s *AreaService) ProcessDocument(ctx context.Context, name string, data []byte, opts Options) ([]byte, *Report, error) {
	if s.codec == nil {
		return nil, nil, errors.New("dataset codec is not configured")
	}
	ds, err := s.codec.Decode(name, data)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.UpdateDataset(ctx, ds, opts)
	if err != nil {
		return nil, report, err
	}
	out, err := s.codec.Encode(name, ds)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// resolve выбирает целевые поля. Явно названные поля должны встречаться
// хотя бы в одном сэмпле.
func (s *AreaService) resolve(ds *entity.Dataset, opts Options) (*plan, error) {
	types := make(map[string]entity.LabelType)
	for _, sample := range ds.Samples {
		if sample == nil {
			continue
		}
		for name, label := range sample.Fields {
			if label == nil {
				continue
			}
			if cur, ok := types[name]; !ok || !supported(cur) {
				types[name] = label.Type
			}
		}
	}

	p := &plan{opts: opts, explicit: make(map[string]bool, len(opts.Fields))}
	if len(opts.Fields) > 0 {
		for _, f := range opts.Fields {
			if _, ok := types[f]; !ok {
				return nil, fmt.Errorf("%w: %q is not present in any sample", entity.ErrUnknownField, f)
			}
			p.fields = append(p.fields, f)
			p.explicit[f] = true
		}
	} else {
		for name, t := range types {
			if supported(t) {
				p.fields = append(p.fields, name)
			}
		}
		sort.Strings(p.fields)
	}

	if opts.ConvertMasks {
		have := make(map[string]bool, len(p.fields))
		for _, f := range p.fields {
			have[f] = true
		}
		for _, f := range p.fields {
			if types[f] != entity.LabelDetections {
				continue
			}
			p.masks = append(p.masks, f)
			if target := f + entity.PolylinesSuffix; !have[target] {
				p.fields = append(p.fields, target)
				have[target] = true
			}
		}
	}
	return p, nil
}

func (s *AreaService) processSample(ctx context.Context, sample *entity.Sample, p *plan) sampleReport {
	var rep sampleReport

	for _, f := range p.masks {
		n, failures := s.masks.ConvertSample(ctx, sample, f, p.opts.maskOptions())
		rep.converted += n
		rep.failures = append(rep.failures, failures...)
	}

	pending := 0
	for _, f := range p.fields {
		pending += sample.Fields[f].Len()
	}
	if pending == 0 {
		s.reportUnsupported(sample, p, &rep)
		return rep
	}

	dims, err := s.dimensions(ctx, sample, p.opts.ComputeMetadata && !p.opts.NoFiles)
	if err != nil {
		rep.fail(sample.ID, "", -1, err)
		s.log.Warn().Err(err).Str("sample", sample.ID).Msg("sample skipped")
		return rep
	}

	for _, f := range p.fields {
		label := sample.Fields[f]
		if label == nil {
			continue
		}
		switch label.Type {
		case entity.LabelDetections:
			for i, det := range label.Detections {
				s.updateDetection(sample.ID, f, i, det, dims, p.opts, &rep)
			}
		case entity.LabelPolylines:
			for i, pl := range label.Polylines {
				s.updatePolyline(sample.ID, f, i, pl, dims, p.opts, &rep)
			}
		}
	}
	s.reportUnsupported(sample, p, &rep)
	return rep
}

func (s *AreaService) reportUnsupported(sample *entity.Sample, p *plan, rep *sampleReport) {
	for _, f := range p.fields {
		label := sample.Fields[f]
		if label == nil || !p.explicit[f] {
			continue
		}
		if !supported(label.Type) {
			err := fmt.Errorf("%w: field type %q", entity.ErrUnsupportedGeometryType, label.Type)
			rep.fail(sample.ID, f, -1, err)
			s.log.Warn().Err(err).Str("sample", sample.ID).Str("field", f).Msg("field skipped")
		}
	}
}

func (s *AreaService) dimensions(ctx context.Context, sample *entity.Sample, compute bool) (entity.ImageDimensions, error) {
	dims := sample.Metadata.Dimensions()
	if dims.Valid() {
		return dims, nil
	}
	if !compute || s.metadata == nil || sample.Filepath == "" {
		return dims, fmt.Errorf("%w: sample has no usable metadata", entity.ErrInvalidDimensions)
	}

	dims, err := s.metadata.Dimensions(ctx, sample.Filepath)
	if err != nil {
		return dims, fmt.Errorf("%w: %v", entity.ErrInvalidDimensions, err)
	}
	if !dims.Valid() {
		return dims, fmt.Errorf("%w: %dx%d", entity.ErrInvalidDimensions, dims.Width, dims.Height)
	}
	sample.Metadata = &entity.Metadata{Width: dims.Width, Height: dims.Height}
	return dims, nil
}

func (s *AreaService) updateDetection(sampleID, field string, i int, det *entity.Detection, dims entity.ImageDimensions, opts Options, rep *sampleReport) {
	if det == nil {
		return
	}
	if !opts.Overwrite && entity.HasAttributes(det.Attributes, entity.AttrRelativeBoxArea, entity.AttrAbsoluteBoxArea) {
		rep.skipped++
		return
	}
	if det.BoundingBox == nil {
		s.failAnnotation(sampleID, field, i, fmt.Errorf("%w: detection has no bounding box", entity.ErrUnsupportedGeometryType), rep)
		return
	}

	box, err := entity.BoundingBoxFromSlice(det.BoundingBox)
	if err == nil {
		var res entity.AreaResult
		if res, err = area.BoxArea(box, dims, opts.Space); err == nil {
			entity.SetArea(&det.Attributes, entity.AttrRelativeBoxArea, entity.AttrAbsoluteBoxArea, res)
			rep.updated++
			return
		}
	}
	s.failAnnotation(sampleID, field, i, err, rep)
}

func (s *AreaService) updatePolyline(sampleID, field string, i int, pl *entity.Polyline, dims entity.ImageDimensions, opts Options, rep *sampleReport) {
	if pl == nil {
		return
	}
	if !opts.Overwrite && entity.HasAttributes(pl.Attributes, entity.AttrRelativeSurfaceArea, entity.AttrAbsoluteSurfaceArea) {
		rep.skipped++
		return
	}

	res, err := area.PolygonArea(pl.Rings(), dims, opts.Space)
	if err != nil {
		s.failAnnotation(sampleID, field, i, err, rep)
		return
	}
	entity.SetArea(&pl.Attributes, entity.AttrRelativeSurfaceArea, entity.AttrAbsoluteSurfaceArea, res)
	rep.updated++
}

func (s *AreaService) failAnnotation(sampleID, field string, i int, err error, rep *sampleReport) {
	rep.fail(sampleID, field, i, err)
	s.log.Warn().Err(err).Str("sample", sampleID).Str("field", field).Int("index", i).Msg("annotation skipped")
}

func supported(t entity.LabelType) bool {
	return t == entity.LabelDetections || t == entity.LabelPolylines
}
