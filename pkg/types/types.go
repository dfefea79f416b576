package types

import (
	"fmt"
	"image"
	"image/color"
)

// Color is an RGB display color, serialized as [r, g, b]
type Color [3]uint8

// NRGBA returns the opaque color.NRGBA for c
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 255}
}

// Hex returns the CSS hex form, e.g. #ff0000
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Box is one axis-aligned rectangle in pixel coordinates with a label and a display color.
// XMin < XMax and YMin < YMax are expected but not enforced.
type Box struct {
	XMin  int    `json:"xmin"`
	YMin  int    `json:"ymin"`
	XMax  int    `json:"xmax"`
	YMax  int    `json:"ymax"`
	Label string `json:"label"`
	Color Color  `json:"color"`
}

// Rect returns the box as an image.Rectangle. Inverted boxes are kept as is
// and therefore report Empty.
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(b.XMin, b.YMin), Max: image.Pt(b.XMax, b.YMax)}
}

func (b Box) String() string {
	return fmt.Sprintf("%s (%d, %d), (%d, %d)", b.Label, b.XMin, b.YMin, b.XMax, b.YMax)
}

// Annotation is a single image plus its user-drawn boxes
type Annotation struct {
	Image     image.Image `json:"-"`
	ImageName string      `json:"image"`
	Boxes     []Box       `json:"boxes"`
}

// AnnotatorConfig is the label configuration handed to the annotator widget
type AnnotatorConfig struct {
	Labels      []string `json:"label_list"`
	LabelColors []Color  `json:"label_colors"`
}

// ColorFor returns the configured color for label
func (c AnnotatorConfig) ColorFor(label string) (Color, bool) {
	for i, l := range c.Labels {
		if l == label && i < len(c.LabelColors) {
			return c.LabelColors[i], true
		}
	}
	return Color{}, false
}

// Selection is the redrawn image selector after a folder selection
type Selection struct {
	Choices []string `json:"choices"`
	Default string   `json:"default"`
}

// PanelUpdate is the visibility and button label of the settings panel
type PanelUpdate struct {
	Visible     bool   `json:"visible"`
	ButtonLabel string `json:"button_label"`
}

// NormBox is a normalized bounding box with coordinates in [0,1] range, as returned by vision models
type NormBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DetectedObject is one object reported by the vision model
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        NormBox `json:"box"`
}

// AnalysisResult contains the complete analysis result from the vision model
type AnalysisResult struct {
	Objects     []DetectedObject `json:"objects"`
	Description string           `json:"description"`
}
