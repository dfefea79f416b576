package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/types"
)

// DefaultPrompt asks for objects of the configured labels. %s is the quoted label list.
const DefaultPrompt = `You are an object locator for an image annotation tool.

Return JSON only:
{
  "objects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- Only report objects whose label is one of: %s.
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- Boxes should tightly include the object.
- If nothing matches, return {"objects": [], "description": "no matching objects"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Options controls how the image is sent to the model
type Options struct {
	Model         string
	SendFormat    string
	SendSize      int
	SendQuality   int
	MinConfidence float64
}

// Suggester proposes initial boxes for an image using a vision model
type Suggester struct {
	client    client.VisionClient
	processor *processing.Processor
	labels    types.AnnotatorConfig
	opts      Options
}

// NewSuggester creates a suggester restricted to the labels in cfg
func NewSuggester(c client.VisionClient, p *processing.Processor, cfg types.AnnotatorConfig, opts Options) *Suggester {
	return &Suggester{client: c, processor: p, labels: cfg, opts: opts}
}

// Suggest returns pixel boxes for the objects the model finds in img.
// Objects with an unknown label, low confidence or an empty box are dropped.
func (s *Suggester) Suggest(ctx context.Context, img image.Image) ([]types.Box, error) {
	imgB64, err := s.processor.PrepareImageForModel(img, s.opts.SendFormat, s.opts.SendSize, s.opts.SendQuality)
	if err != nil {
		return nil, errors.Wrap(err, "prepare image for model")
	}

	result, err := s.client.AnalyzeImage(ctx, s.opts.Model, s.Prompt(), imgB64)
	if err != nil {
		return nil, errors.Wrap(err, "analyze image")
	}

	b := img.Bounds()
	boxes := make([]types.Box, 0, len(result.Objects))
	for _, obj := range result.Objects {
		label, color, ok := s.matchLabel(obj.Label)
		if !ok || obj.Confidence < s.opts.MinConfidence {
			continue
		}
		box := toPixels(normalizeBox(obj.Box), b.Dx(), b.Dy())
		if box.Rect().Empty() {
			continue
		}
		box.Label = label
		box.Color = color
		boxes = append(boxes, box)
	}
	return boxes, nil
}

// Prompt returns the prompt sent to the model
func (s *Suggester) Prompt() string {
	quoted := make([]string, len(s.labels.Labels))
	for i, l := range s.labels.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(DefaultPrompt, strings.Join(quoted, ", "))
}

// matchLabel maps a model label onto a configured one, ignoring case
func (s *Suggester) matchLabel(label string) (string, types.Color, bool) {
	for _, l := range s.labels.Labels {
		if strings.EqualFold(strings.TrimSpace(label), l) {
			c, _ := s.labels.ColorFor(l)
			return l, c, true
		}
	}
	return "", types.Color{}, false
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clips a normalized box to the unit square
func normalizeBox(b types.NormBox) types.NormBox {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.NormBox{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

func toPixels(b types.NormBox, w, h int) types.Box {
	fw, fh := float64(w), float64(h)
	return types.Box{
		XMin: int(math.Round(b.X * fw)),
		YMin: int(math.Round(b.Y * fh)),
		XMax: int(math.Round((b.X + b.W) * fw)),
		YMax: int(math.Round((b.Y + b.H) * fh)),
	}
}
