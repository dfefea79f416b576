// Package registry maps the display names of the images in the active folder to their source paths.
package registry

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/image-annotator/pkg/types"
)

// ErrNoImages is returned when a folder selection contains no qualifying image
var ErrNoImages = errors.New("no images found")

// DefaultExtensions are the accepted image suffixes. Matching is case-sensitive.
var DefaultExtensions = []string{".png", ".jpg"}

// Registry is an ordered mapping from base filename to source path.
// A Registry is never modified after construction; a folder selection builds a new one.
type Registry struct {
	names []string
	paths map[string]string
}

// Empty returns the registry in place at process start
func Empty() *Registry {
	return &Registry{paths: map[string]string{}}
}

// Build indexes paths by base filename, keeping only those ending in one of exts.
// On duplicate base names the last path wins while the name keeps its first position.
func Build(paths []string, exts []string) *Registry {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	r := Empty()
	for _, p := range paths {
		if !HasImageExtension(p, exts) {
			continue
		}
		name := filepath.Base(p)
		if _, ok := r.paths[name]; !ok {
			r.names = append(r.names, name)
		}
		r.paths[name] = p
	}
	return r
}

// SelectFolder replaces prev with a registry built from paths and returns the new selector state.
//
// A nil paths slice means no folder was chosen: prev is returned untouched with an empty selection.
// When no path qualifies, prev is returned untouched together with ErrNoImages.
func SelectFolder(prev *Registry, paths []string, exts []string) (*Registry, types.Selection, error) {
	if prev == nil {
		prev = Empty()
	}
	if paths == nil {
		return prev, types.Selection{Choices: []string{}}, nil
	}

	next := Build(paths, exts)
	if next.Len() == 0 {
		return prev, types.Selection{Choices: []string{}}, errors.Wrapf(ErrNoImages, "%d files scanned", len(paths))
	}

	return next, types.Selection{Choices: next.Names(), Default: next.names[0]}, nil
}

// HasImageExtension reports whether name ends with one of exts
func HasImageExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Lookup returns the source path registered under name
func (r *Registry) Lookup(name string) (string, bool) {
	p, ok := r.paths[name]
	return p, ok
}

// Names returns the registered names in selection order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered images
func (r *Registry) Len() int {
	return len(r.names)
}
