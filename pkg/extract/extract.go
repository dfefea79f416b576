// Package extract projects annotator output into crops and plain box data.
package extract

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-annotator/pkg/types"
)

// CropFirstBox returns the region of a.Image bounded by the first box.
// The rectangle is clipped to the image bounds. It reports false when there
// are no boxes, no image, or the clipped rectangle is empty.
func CropFirstBox(a types.Annotation) (image.Image, bool) {
	if len(a.Boxes) == 0 || a.Image == nil {
		return nil, false
	}
	return cropBox(a.Image, a.Boxes[0])
}

// CropAll returns a crop for every box that overlaps the image, in box order
func CropAll(a types.Annotation) []image.Image {
	if a.Image == nil {
		return nil
	}
	crops := make([]image.Image, 0, len(a.Boxes))
	for _, b := range a.Boxes {
		if c, ok := cropBox(a.Image, b); ok {
			crops = append(crops, c)
		}
	}
	return crops
}

// BoxesAsData returns the boxes unchanged
func BoxesAsData(a types.Annotation) []types.Box {
	return a.Boxes
}

func cropBox(img image.Image, b types.Box) (image.Image, bool) {
	rect := b.Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return nil, false
	}
	return imaging.Crop(img, rect), true
}
