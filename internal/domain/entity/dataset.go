package entity

// LabelType вид поля с аннотациями
type LabelType string

const (
	LabelDetections LabelType = "detections"
	LabelPolylines  LabelType = "polylines"
)

// Имена атрибутов, которые записываются в аннотации.
const (
	AttrRelativeBoxArea     = "relative_bbox_area"
	AttrAbsoluteBoxArea     = "absolute_bbox_area"
	AttrRelativeSurfaceArea = "relative_surface_area"
	AttrAbsoluteSurfaceArea = "absolute_surface_area"
)

// PolylinesSuffix суффикс поля, в которое складываются контуры масок
const PolylinesSuffix = "_polylines"

// Dataset набор размеченных изображений
type Dataset struct {
	Name    string    `json:"name" yaml:"name"`
	Samples []*Sample `json:"samples" yaml:"samples"`
}

// Sample одно изображение с полями аннотаций
type Sample struct {
	ID       string            `json:"id" yaml:"id"`
	Filepath string            `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	Metadata *Metadata         `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Fields   map[string]*Label `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Metadata размеры изображения
type Metadata struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Dimensions возвращает размеры изображения из метаданных.
func (m *Metadata) Dimensions() ImageDimensions {
	if m == nil {
		return ImageDimensions{}
	}
	return ImageDimensions{Width: m.Width, Height: m.Height}
}

// Label поле аннотаций одного вида
type Label struct {
	Type       LabelType    `json:"type" yaml:"type"`
	Detections []*Detection `json:"detections,omitempty" yaml:"detections,omitempty"`
	Polylines  []*Polyline  `json:"polylines,omitempty" yaml:"polylines,omitempty"`
}

// Len возвращает количество аннотаций в поле.
func (l *Label) Len() int {
	if l == nil {
		return 0
	}
	switch l.Type {
	case LabelDetections:
		return len(l.Detections)
	case LabelPolylines:
		return len(l.Polylines)
	}
	return 0
}

// Detection объект с рамкой и, возможно, маской внутри рамки
type Detection struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
	BoundingBox []float64      `json:"bounding_box,omitempty" yaml:"bounding_box,omitempty"`
	Mask        [][]int        `json:"mask,omitempty" yaml:"mask,omitempty"`
	MaskPath    string         `json:"mask_path,omitempty" yaml:"mask_path,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// HasMask сообщает, есть ли у объекта маска.
func (d *Detection) HasMask() bool {
	return len(d.Mask) > 0 || d.MaskPath != ""
}

// Polyline набор замкнутых или открытых контуров
type Polyline struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Points     [][]Point      `json:"points" yaml:"points"`
	Closed     bool           `json:"closed" yaml:"closed"`
	Filled     bool           `json:"filled" yaml:"filled"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Rings возвращает контуры полилинии.
func (p *Polyline) Rings() []Ring {
	rings := make([]Ring, 0, len(p.Points))
	for _, pts := range p.Points {
		rings = append(rings, Ring(pts))
	}
	return rings
}

// HasAttributes сообщает, что все перечисленные атрибуты уже заданы.
func HasAttributes(attrs map[string]any, names ...string) bool {
	if attrs == nil {
		return false
	}
	for _, n := range names {
		if _, ok := attrs[n]; !ok {
			return false
		}
	}
	return true
}

// SetArea записывает площадь в атрибуты, создавая карту при необходимости.
func SetArea(attrs *map[string]any, relName, absName string, r AreaResult) {
	if *attrs == nil {
		*attrs = make(map[string]any, 2)
	}
	(*attrs)[relName] = r.Relative
	(*attrs)[absName] = r.Absolute
}
