package imagefile

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// Reader читает размеры изображений и маски с диска
type Reader struct{}

// NewReader создаёт читатель файлов изображений
func NewReader() *Reader {
	return &Reader{}
}

// Dimensions возвращает размеры изображения с учётом EXIF-ориентации:
// снимок с камеры, повёрнутый на 90°, имеет переставленные ширину и высоту.
func (r *Reader) Dimensions(ctx context.Context, path string) (entity.ImageDimensions, error) {
	if err := ctx.Err(); err != nil {
		return entity.ImageDimensions{}, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return entity.ImageDimensions{}, fmt.Errorf("open image: %w", err)
	}
	b := img.Bounds()
	return entity.ImageDimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

// LoadMask читает маску из файла; значение пикселя берётся из яркости.
func (r *Reader) LoadMask(ctx context.Context, path string) (entity.Mask, error) {
	if err := ctx.Err(); err != nil {
		return entity.Mask{}, err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return entity.Mask{}, fmt.Errorf("open mask: %w", err)
	}

	gray := imaging.Grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	pix := make([]uint8, 0, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			pix = append(pix, row[x*4])
		}
	}
	return entity.Mask{Width: w, Height: h, Pix: pix}, nil
}

var (
	_ port.MetadataProvider = (*Reader)(nil)
	_ port.MaskLoader       = (*Reader)(nil)
)
