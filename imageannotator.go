// Package imageannotator backs a browser-based bounding box annotator for a
// local folder of images.
//
// A Session holds everything a running annotator needs between UI events:
//
//   - the image registry of the active folder (pkg/registry)
//   - the settings panel state (pkg/settings)
//   - the label set handed to the annotator widget
//   - an image processor for loading, cropping and encoding (pkg/processing)
//
// Basic usage:
//
//	s := imageannotator.New(imageannotator.Options{})
//	sel, err := s.SelectFolder([]string{"shots/a.png", "shots/notes.txt", "shots/c.jpg"})
//	if errors.Is(err, registry.ErrNoImages) {
//		// leave the selector as it was
//	}
//	img, err := s.LoadImage(sel.Default)
//	crop, ok := s.Crop(types.Annotation{Image: img, Boxes: boxes})
//
// The box drawing itself happens in the browser; the session only consumes
// the {image, boxes} payload it produces.
package imageannotator

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/menta2k/image-annotator/pkg/detection"
	"github.com/menta2k/image-annotator/pkg/extract"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/registry"
	"github.com/menta2k/image-annotator/pkg/settings"
	"github.com/menta2k/image-annotator/pkg/types"
)

// Version of the image annotator
const Version = "1.0.0"

// ErrUnknownImage is returned when a name is not in the active registry
var ErrUnknownImage = errors.New("unknown image")

// ErrSuggestDisabled is returned by Suggest when no suggester is configured
var ErrSuggestDisabled = errors.New("box suggestions are disabled")

// Options configures a Session
type Options struct {
	Labels          types.AnnotatorConfig
	Extensions      []string
	ExampleImageURL string
	ExampleBoxes    []types.Box
	Suggester       *detection.Suggester
}

// Example is the annotation shown before any folder is chosen
type Example struct {
	Image string      `json:"image"`
	Boxes []types.Box `json:"boxes"`
}

// Session is the state shared by the handlers of one running annotator.
// The registry is replaced wholesale on every folder selection.
type Session struct {
	mu        sync.RWMutex
	registry  *registry.Registry
	panel     *settings.Panel
	processor *processing.Processor
	opts      Options
}

// New creates a session with an empty registry and the settings panel shown
func New(opts Options) *Session {
	if len(opts.Extensions) == 0 {
		opts.Extensions = registry.DefaultExtensions
	}
	return &Session{
		registry:  registry.Empty(),
		panel:     settings.NewPanel(),
		processor: processing.NewProcessor(),
		opts:      opts,
	}
}

// Processor returns the session's image processor
func (s *Session) Processor() *processing.Processor {
	return s.processor
}

// SelectFolder rebuilds the registry from the selected folder's file paths.
// On registry.ErrNoImages the previous registry stays active.
func (s *Session) SelectFolder(paths []string) (types.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, sel, err := registry.SelectFolder(s.registry, paths, s.opts.Extensions)
	s.registry = next
	return sel, err
}

// Choices returns the names in the active registry
func (s *Session) Choices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Names()
}

// ImagePath resolves a registered name to its source path
func (s *Session) ImagePath(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.registry.Lookup(name)
	if !ok {
		return "", errors.Wrapf(ErrUnknownImage, "%q", name)
	}
	return p, nil
}

// LoadImage loads a registered image. The empty name loads the example image.
func (s *Session) LoadImage(name string) (image.Image, error) {
	if name == "" {
		if s.opts.ExampleImageURL == "" {
			return nil, errors.Wrap(ErrUnknownImage, "no example image configured")
		}
		return s.processor.LoadImageSmart(s.opts.ExampleImageURL)
	}
	p, err := s.ImagePath(name)
	if err != nil {
		return nil, err
	}
	return s.processor.LoadImageSmart(p)
}

// Crop returns the region of the first box, or false when there is none
func (s *Session) Crop(a types.Annotation) (image.Image, bool) {
	return extract.CropFirstBox(a)
}

// CropAll returns one crop per box overlapping the image
func (s *Session) CropAll(a types.Annotation) []image.Image {
	return extract.CropAll(a)
}

// Boxes returns the annotation's boxes unchanged
func (s *Session) Boxes(a types.Annotation) []types.Box {
	return extract.BoxesAsData(a)
}

// Overlay renders the annotation's boxes onto its image
func (s *Session) Overlay(a types.Annotation) image.Image {
	return s.processor.DrawBoxes(a.Image, a.Boxes)
}

// ToggleSettings flips the settings panel
func (s *Session) ToggleSettings() types.PanelUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Toggle()
}

// SettingsState reports the settings panel without changing it
func (s *Session) SettingsState() types.PanelUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panel.State()
}

// AnnotatorConfig returns the label list and colors for the annotator widget
func (s *Session) AnnotatorConfig() types.AnnotatorConfig {
	return s.opts.Labels
}

// Example returns the annotation shown before a folder is chosen
func (s *Session) Example() Example {
	boxes := make([]types.Box, len(s.opts.ExampleBoxes))
	copy(boxes, s.opts.ExampleBoxes)
	return Example{Image: s.opts.ExampleImageURL, Boxes: boxes}
}

// SuggestEnabled reports whether a vision model is configured
func (s *Session) SuggestEnabled() bool {
	return s.opts.Suggester != nil
}

// Suggest asks the vision model for initial boxes on the named image
func (s *Session) Suggest(ctx context.Context, name string) ([]types.Box, error) {
	if s.opts.Suggester == nil {
		return nil, ErrSuggestDisabled
	}
	img, err := s.LoadImage(name)
	if err != nil {
		return nil, err
	}
	return s.opts.Suggester.Suggest(ctx, img)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
