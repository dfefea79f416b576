package imageannotator

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-annotator/pkg/detection"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/registry"
	"github.com/menta2k/image-annotator/pkg/types"
)

// createTestImage creates a grey image with a white square at (10,10)-(20,20)
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= 10 && x < 20 && y >= 10 && y < 20 {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.NRGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, imaging.Save(createTestImage(40, 30), p))
		paths = append(paths, p)
	}
	return paths
}

func TestSessionSelectFolderAndLoad(t *testing.T) {
	s := New(Options{})
	images := writeImages(t, "a.png", "c.jpg")
	paths := []string{images[0], filepath.Join(filepath.Dir(images[0]), "b.txt"), images[1]}

	sel, err := s.SelectFolder(paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "c.jpg"}, sel.Choices)
	assert.Equal(t, "a.png", sel.Default)
	assert.Equal(t, sel.Choices, s.Choices())

	img, err := s.LoadImage("c.jpg")
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = s.LoadImage("b.txt")
	assert.True(t, errors.Is(err, ErrUnknownImage))
}

func TestSessionNoImagesKeepsRegistry(t *testing.T) {
	s := New(Options{})
	_, err := s.SelectFolder(writeImages(t, "keep.png"))
	require.NoError(t, err)

	sel, err := s.SelectFolder([]string{"x.txt"})
	assert.True(t, errors.Is(err, registry.ErrNoImages))
	assert.Empty(t, sel.Choices)
	assert.Equal(t, []string{"keep.png"}, s.Choices())
}

func TestSessionCropAndBoxes(t *testing.T) {
	s := New(Options{})
	a := types.Annotation{
		Image: createTestImage(40, 30),
		Boxes: []types.Box{{XMin: 10, YMin: 10, XMax: 20, YMax: 20, Label: "Person", Color: types.Color{0, 255, 0}}},
	}

	crop, ok := s.Crop(a)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 10, 10), crop.Bounds())
	assert.Equal(t, a.Boxes, s.Boxes(a))
	assert.Len(t, s.CropAll(a), 1)

	_, ok = s.Crop(types.Annotation{Image: a.Image})
	assert.False(t, ok)

	overlay := s.Overlay(a)
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, color.NRGBAModel.Convert(overlay.At(10, 10)))
}

func TestSessionToggleSettings(t *testing.T) {
	s := New(Options{})
	initial := s.SettingsState()
	assert.True(t, initial.Visible)

	assert.False(t, s.ToggleSettings().Visible)
	assert.Equal(t, initial, s.ToggleSettings())
}

func TestSessionExample(t *testing.T) {
	boxes := []types.Box{{XMin: 1, YMin: 2, XMax: 3, YMax: 4, Label: "Vehicle"}}
	s := New(Options{ExampleImageURL: "https://example.com/base.png", ExampleBoxes: boxes})

	ex := s.Example()
	assert.Equal(t, "https://example.com/base.png", ex.Image)
	assert.Equal(t, boxes, ex.Boxes)

	ex.Boxes[0].Label = "mutated"
	assert.Equal(t, "Vehicle", s.Example().Boxes[0].Label)
}

type fakeVision struct{}

func (fakeVision) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error) {
	return &types.AnalysisResult{Objects: []types.DetectedObject{
		{Label: "Person", Confidence: 1, Box: types.NormBox{X: 0.25, Y: 0, W: 0.5, H: 0.5}},
	}}, nil
}

func TestSessionSuggest(t *testing.T) {
	labels := types.AnnotatorConfig{Labels: []string{"Person"}, LabelColors: []types.Color{{0, 255, 0}}}

	disabled := New(Options{Labels: labels})
	_, err := disabled.Suggest(context.Background(), "a.png")
	assert.True(t, errors.Is(err, ErrSuggestDisabled))

	sug := detection.NewSuggester(fakeVision{}, processing.NewProcessor(), labels, detection.Options{SendFormat: "png", SendQuality: 90})
	s := New(Options{Labels: labels, Suggester: sug})
	_, err = s.SelectFolder(writeImages(t, "a.png"))
	require.NoError(t, err)

	boxes, err := s.Suggest(context.Background(), "a.png")
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, types.Box{XMin: 10, YMin: 0, XMax: 30, YMax: 15, Label: "Person", Color: types.Color{0, 255, 0}}, boxes[0])
}
