package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// FitzRasterizer renders PDF pages with MuPDF.
type FitzRasterizer struct{}

func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

func (r *FitzRasterizer) Rasterize(ctx context.Context, pdf []byte, dpi int) ([]ports.PageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, errs.Wrap(err, "open pdf")
	}
	defer doc.Close()

	pages := make([]ports.PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, errs.Wrapf(err, "render pdf page %d", i+1)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, errs.Wrapf(err, "encode pdf page %d", i+1)
		}

		bounds := img.Bounds()
		pages = append(pages, ports.PageImage{
			PageNo: i + 1,
			PNG:    buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	if len(pages) == 0 {
		return nil, errors.New("pdf produced no pages")
	}
	return pages, nil
}

// Thumbnail scales a page PNG down to fit maxW x maxH, preserving aspect
// ratio. An image already within bounds is re-encoded unscaled.
func (r *FitzRasterizer) Thumbnail(ctx context.Context, source []byte, maxW int, maxH int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := png.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, errs.Wrap(err, "decode page image")
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxW || height > maxH {
		scale := float64(maxW) / float64(width)
		if s := float64(maxH) / float64(height); s < scale {
			scale = s
		}
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, errs.Wrap(err, "encode thumbnail")
	}
	return buf.Bytes(), nil
}
