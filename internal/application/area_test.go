package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
	"area-meter/internal/infrastructure/storage"
)

func newAreaService(tracer *fullTracer, meta port.MetadataProvider) *AreaService {
	if tracer == nil {
		tracer = &fullTracer{}
	}
	codec := storage.NewCodec()
	masks := NewMaskService(tracer, nil, zerolog.Nop())
	return NewAreaService(masks, meta, storage.NewFileDatasetRepository(codec), codec, zerolog.Nop())
}

func TestAreaService_BoxAreas(t *testing.T) {
	det := box(0.1, 0.1, 0.2, 0.3)
	ds := &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 1000, 500, map[string]*entity.Label{"ground_truth": detections(det)}),
	}}

	report, err := newAreaService(nil, nil).UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Samples)
	assert.Equal(t, 1, report.Updated)

	assert.InDelta(t, 0.06, det.Attributes[entity.AttrRelativeBoxArea], 1e-12)
	assert.InDelta(t, 30000.0, det.Attributes[entity.AttrAbsoluteBoxArea], 1e-6)
	// исходная геометрия не меняется
	assert.Equal(t, []float64{0.1, 0.1, 0.2, 0.3}, det.BoundingBox)
}

func TestAreaService_PolylineAreasInPixels(t *testing.T) {
	pl := &entity.Polyline{
		Points: [][]entity.Point{{entity.Pt(0, 0), entity.Pt(0, 10), entity.Pt(10, 10), entity.Pt(10, 0)}},
		Closed: true,
	}
	ds := &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 100, 100, map[string]*entity.Label{"outline": polylines(pl)}),
	}}
	opts := DefaultOptions()
	opts.Space = entity.SpaceAbsolute

	report, err := newAreaService(nil, nil).UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 100.0, pl.Attributes[entity.AttrAbsoluteSurfaceArea])
	assert.InDelta(t, 0.01, pl.Attributes[entity.AttrRelativeSurfaceArea], 1e-12)
}

func TestAreaService_EmptySamplesAreSkipped(t *testing.T) {
	empty := &entity.Sample{ID: "s1", Metadata: &entity.Metadata{Width: 0, Height: 0}}
	noDets := sample("s2", 10, 10, map[string]*entity.Label{"ground_truth": detections()})
	ds := &entity.Dataset{Samples: []*entity.Sample{empty, noDets, nil}}

	report, err := newAreaService(nil, nil).UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	assert.Equal(t, 2, report.Samples)
	assert.Zero(t, report.Updated)
	assert.Nil(t, empty.Fields)
	assert.Empty(t, noDets.Fields["ground_truth"].Detections)
}

func TestAreaService_OverwritePolicy(t *testing.T) {
	newDS := func() (*entity.Dataset, *entity.Detection) {
		det := box(0, 0, 0.5, 0.5)
		det.Attributes = map[string]any{
			entity.AttrRelativeBoxArea: 0.9,
			entity.AttrAbsoluteBoxArea: 9.0,
			"occluded":                 true,
		}
		return &entity.Dataset{Samples: []*entity.Sample{
			sample("s1", 10, 10, map[string]*entity.Label{"gt": detections(det)}),
		}}, det
	}
	svc := newAreaService(nil, nil)

	ds, det := newDS()
	report, err := svc.UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0.9, det.Attributes[entity.AttrRelativeBoxArea])

	ds, det = newDS()
	opts := DefaultOptions()
	opts.Overwrite = true
	report, err = svc.UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0.25, det.Attributes[entity.AttrRelativeBoxArea])
	assert.Equal(t, 25.0, det.Attributes[entity.AttrAbsoluteBoxArea])
	assert.Equal(t, true, det.Attributes["occluded"])
}

func TestAreaService_FailuresDoNotStopBatch(t *testing.T) {
	bad := box(0, 0, -1, 0.5)
	good := box(0, 0, 0.5, 0.5)
	noBox := &entity.Detection{Label: "ghost"}
	short := &entity.Polyline{Points: [][]entity.Point{{entity.Pt(0, 0), entity.Pt(1, 1)}}}
	ds := &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 10, 10, map[string]*entity.Label{
			"gt":      detections(bad, good, noBox),
			"outline": polylines(short),
		}),
		sample("s2", 0, 500, map[string]*entity.Label{"gt": detections(box(0, 0, 0.1, 0.1))}),
	}}

	report, err := newAreaService(nil, nil).UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Failures, 4)

	assert.Equal(t, Failure{SampleID: "s1", Field: "gt", Index: 0, Err: report.Failures[0].Err}, report.Failures[0])
	assert.ErrorIs(t, report.Failures[0], entity.ErrInvalidGeometry)
	assert.ErrorIs(t, report.Failures[1], entity.ErrUnsupportedGeometryType)
	assert.Equal(t, 2, report.Failures[1].Index)
	assert.ErrorIs(t, report.Failures[2], entity.ErrInvalidGeometry)
	assert.Equal(t, "outline", report.Failures[2].Field)
	assert.ErrorIs(t, report.Failures[3], entity.ErrInvalidDimensions)
	assert.Equal(t, "s2", report.Failures[3].SampleID)

	assert.NotContains(t, bad.Attributes, entity.AttrRelativeBoxArea)
	assert.ErrorIs(t, report.Err(), entity.ErrInvalidDimensions)
}

func TestAreaService_ComputeMetadata(t *testing.T) {
	det := box(0, 0, 0.5, 0.5)
	s := &entity.Sample{ID: "s1", Filepath: "/img/a.jpg", Fields: map[string]*entity.Label{"gt": detections(det)}}
	ds := &entity.Dataset{Samples: []*entity.Sample{s}}
	meta := &fakeMetadata{dims: map[string]entity.ImageDimensions{"/img/a.jpg": {Width: 40, Height: 20}}}
	svc := newAreaService(nil, meta)

	report, err := svc.UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], entity.ErrInvalidDimensions)

	opts := DefaultOptions()
	opts.ComputeMetadata = true
	opts.NoFiles = true
	report, err = svc.UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Nil(t, s.Metadata)

	opts.NoFiles = false
	report, err = svc.UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	assert.Equal(t, &entity.Metadata{Width: 40, Height: 20}, s.Metadata)
	assert.Equal(t, 200.0, det.Attributes[entity.AttrAbsoluteBoxArea])
}

func TestAreaService_FieldSelection(t *testing.T) {
	gt := box(0, 0, 0.5, 0.5)
	pred := box(0, 0, 0.1, 0.1)
	ds := &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 10, 10, map[string]*entity.Label{
			"gt":        detections(gt),
			"pred":      detections(pred),
			"keypoints": {Type: "keypoints"},
		}),
	}}
	svc := newAreaService(nil, nil)

	opts := DefaultOptions()
	opts.Fields = []string{"pred"}
	report, err := svc.UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Nil(t, gt.Attributes)
	assert.Contains(t, pred.Attributes, entity.AttrRelativeBoxArea)

	opts.Fields = []string{"missing"}
	_, err = svc.UpdateDataset(context.Background(), ds, opts)
	require.ErrorIs(t, err, entity.ErrUnknownField)

	opts.Fields = []string{"keypoints"}
	report, err = svc.UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], entity.ErrUnsupportedGeometryType)

	// без явного списка неподдерживаемые поля просто пропускаются
	report, err = svc.UpdateDataset(context.Background(), ds, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Contains(t, gt.Attributes, entity.AttrRelativeBoxArea)
}

func TestAreaService_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 0
	_, err := newAreaService(nil, nil).UpdateDataset(context.Background(), &entity.Dataset{}, opts)
	require.ErrorIs(t, err, entity.ErrInvalidOptions)

	svc := NewAreaService(nil, nil, nil, nil, zerolog.Nop())
	opts = DefaultOptions()
	opts.ConvertMasks = true
	_, err = svc.UpdateDataset(context.Background(), &entity.Dataset{}, opts)
	require.ErrorIs(t, err, entity.ErrInvalidOptions)
}

func TestAreaService_WorkersMatchSequential(t *testing.T) {
	build := func() *entity.Dataset {
		ds := &entity.Dataset{}
		for i := 0; i < 60; i++ {
			w := float64(i%10) / 10
			if i%7 == 0 {
				w = -0.5
			}
			ds.Samples = append(ds.Samples, sample(fmt.Sprintf("s%02d", i), 100+i, 50, map[string]*entity.Label{
				"gt": detections(box(0, 0, w, 0.5), box(0.5, 0.5, 0.2, 0.2)),
			}))
		}
		return ds
	}
	svc := newAreaService(nil, nil)

	seqDS := build()
	seq, err := svc.UpdateDataset(context.Background(), seqDS, DefaultOptions())
	require.NoError(t, err)

	parDS := build()
	opts := DefaultOptions()
	opts.Workers = 4
	par, err := svc.UpdateDataset(context.Background(), parDS, opts)
	require.NoError(t, err)

	assert.Equal(t, seq.Samples, par.Samples)
	assert.Equal(t, seq.Updated, par.Updated)
	require.Equal(t, len(seq.Failures), len(par.Failures))
	for i := range seq.Failures {
		assert.Equal(t, seq.Failures[i].SampleID, par.Failures[i].SampleID)
	}
	assert.Equal(t, seqDS, parDS)
}

func TestAreaService_CanceledContext(t *testing.T) {
	ds := &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 10, 10, map[string]*entity.Label{"gt": detections(box(0, 0, 0.5, 0.5))}),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newAreaService(nil, nil).UpdateDataset(ctx, ds, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
}

func TestAreaService_ConvertMasks(t *testing.T) {
	det := box(0.2, 0.2, 0.4, 0.5)
	det.ID = "d1"
	det.Mask = [][]int{{1, 1}, {1, 1}}
	s := sample("s1", 100, 200, map[string]*entity.Label{"gt": detections(det, box(0, 0, 0.1, 0.1))})
	ds := &entity.Dataset{Samples: []*entity.Sample{s}}

	opts := DefaultOptions()
	opts.ConvertMasks = true
	report, err := newAreaService(nil, nil).UpdateDataset(context.Background(), ds, opts)
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	assert.Equal(t, 1, report.Converted)
	assert.Equal(t, 3, report.Updated)

	field := s.Fields["gt"+entity.PolylinesSuffix]
	require.NotNil(t, field)
	require.Len(t, field.Polylines, 1)
	pl := field.Polylines[0]
	assert.Equal(t, "d1", pl.ID)
	assert.True(t, pl.Closed)
	assert.True(t, pl.Filled)
	// контур по краю маски совпадает с рамкой
	assert.InDelta(t, 0.2, pl.Attributes[entity.AttrRelativeSurfaceArea], 1e-12)
	assert.InDelta(t, 4000.0, pl.Attributes[entity.AttrAbsoluteSurfaceArea], 1e-9)
}

func TestAreaService_ProcessDocument(t *testing.T) {
	doc := []byte(`{"name": "d", "samples": [{"id": "s1", "metadata": {"width": 1000, "height": 500},
		"fields": {"gt": {"type": "detections", "detections": [{"bounding_box": [0.1, 0.1, 0.2, 0.3]}]}}}]}`)

	out, report, err := newAreaService(nil, nil).ProcessDocument(context.Background(), "d.json", doc, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Contains(t, string(out), entity.AttrAbsoluteBoxArea)

	_, _, err = newAreaService(nil, nil).ProcessDocument(context.Background(), "d.txt", doc, DefaultOptions())
	require.Error(t, err)
}

func TestAreaService_ProcessFile(t *testing.T) {
	codec := storage.NewCodec()
	repo := storage.NewFileDatasetRepository(codec)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yaml")
	out := filepath.Join(dir, "out.json")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, in, &entity.Dataset{Samples: []*entity.Sample{
		sample("s1", 10, 10, map[string]*entity.Label{"gt": detections(box(0, 0, 0.5, 0.5))}),
	}}))

	report, err := newAreaService(nil, nil).ProcessFile(ctx, in, out, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	ds, err := repo.Load(ctx, out)
	require.NoError(t, err)
	attrs := ds.Samples[0].Fields["gt"].Detections[0].Attributes
	assert.Equal(t, 0.25, attrs[entity.AttrRelativeBoxArea])
	assert.Equal(t, 25.0, attrs[entity.AttrAbsoluteBoxArea])
}
