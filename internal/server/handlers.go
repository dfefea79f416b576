package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/registry"
	"github.com/menta2k/image-annotator/pkg/types"
)

// errBadRequest marks client payload errors
var errBadRequest = errors.New("bad request")

type configResponse struct {
	types.AnnotatorConfig
	Settings       types.PanelUpdate `json:"settings"`
	Choices        []string          `json:"choices"`
	SuggestEnabled bool              `json:"suggest_enabled"`
	Version        string            `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, configResponse{
		AnnotatorConfig: s.session.AnnotatorConfig(),
		Settings:        s.session.SettingsState(),
		Choices:         s.session.Choices(),
		SuggestEnabled:  s.session.SuggestEnabled(),
		Version:         imageannotator.GetVersion(),
	})
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Example())
}

func (s *Server) handleChoices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, types.Selection{Choices: s.session.Choices()})
}

// handleFolder receives the files of a folder picked in the browser. Each
// "files" part is paired by index with a "paths" value carrying the file's
// path relative to the picked folder. A request without any files is the
// "no folder chosen" case and leaves the selector as it is.
func (s *Server) handleFolder(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		s.selectNoFolder(w)
		return
	}
	maxBytes := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			s.selectNoFolder(w)
			return
		}
		s.writeError(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.selectNoFolder(w)
		return
	}
	rel := r.MultipartForm.Value["paths"]

	if err := utils.EnsureDir(s.cfg.Ingest.UploadDir); err != nil {
		s.writeError(w, errors.Wrap(err, "create upload root"))
		return
	}
	dir, err := os.MkdirTemp(s.cfg.Ingest.UploadDir, "folder-")
	if err != nil {
		s.writeError(w, errors.Wrap(err, "create upload directory"))
		return
	}

	paths := make([]string, 0, len(files))
	var total int64
	for i, fh := range files {
		name := fh.Filename
		if i < len(rel) && rel[i] != "" {
			name = rel[i]
		}
		dst, err := utils.UploadPath(dir, i, name)
		if err != nil {
			s.logger.Warn("skipping upload", slog.String("name", name), slog.String("err", err.Error()))
			continue
		}
		// only image files are stored, the rest only need a path for filtering
		if registry.HasImageExtension(filepath.Base(dst), s.cfg.Ingest.Extensions) {
			f, err := fh.Open()
			if err != nil {
				_ = os.RemoveAll(dir)
				s.writeError(w, errors.Wrap(err, "open upload"))
				return
			}
			n, err := utils.WriteFile(dst, f)
			f.Close()
			if err != nil {
				_ = os.RemoveAll(dir)
				s.writeError(w, err)
				return
			}
			total += n
		}
		paths = append(paths, dst)
	}

	sel, err := s.selectUploadedFolder(dir, paths)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("folder selected",
		slog.Int("files", len(files)),
		slog.Int("images", len(sel.Choices)),
		slog.String("size", utils.FormatFileSize(total)),
	)
	s.writeJSON(w, http.StatusOK, sel)
}

func (s *Server) selectNoFolder(w http.ResponseWriter) {
	sel, err := s.session.SelectFolder(nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.ImagePath(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.ServeFile(w, r, p)
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	a, err := s.decodeAnnotation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	crop, ok := s.session.Crop(a)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	out := s.cfg.Output
	if err := s.session.Processor().Encode(&buf, crop, out.Format, out.Quality, out.Lossless); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", processing.ContentType(out.Format))
	_, _ = w.Write(buf.Bytes())
}

type cropsResponse struct {
	Crops []string `json:"crops"`
}

func (s *Server) handleCropAll(w http.ResponseWriter, r *http.Request) {
	a, err := s.decodeAnnotation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := s.cfg.Output
	prefix := "data:" + processing.ContentType(out.Format) + ";base64,"
	resp := cropsResponse{Crops: []string{}}
	for _, crop := range s.session.CropAll(a) {
		var buf bytes.Buffer
		if err := s.session.Processor().Encode(&buf, crop, out.Format, out.Quality, out.Lossless); err != nil {
			s.writeError(w, err)
			return
		}
		resp.Crops = append(resp.Crops, prefix+base64.StdEncoding.EncodeToString(buf.Bytes()))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBoxes(w http.ResponseWriter, r *http.Request) {
	var a types.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeError(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	boxes := s.session.Boxes(a)
	if boxes == nil {
		boxes = []types.Box{}
	}
	s.writeJSON(w, http.StatusOK, boxes)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	a, err := s.decodeAnnotation(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := s.session.Processor().Encode(&buf, s.session.Overlay(a), processing.FormatPNG, 0, false); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.ToggleSettings())
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	boxes, err := s.session.Suggest(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("boxes suggested", slog.String("image", name), slog.Int("boxes", len(boxes)))
	s.writeJSON(w, http.StatusOK, boxes)
}

// decodeAnnotation reads the annotation payload and loads the image it refers to
func (s *Server) decodeAnnotation(r *http.Request) (types.Annotation, error) {
	var a types.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		return a, errors.Wrap(errBadRequest, err.Error())
	}
	img, err := s.session.LoadImage(a.ImageName)
	if err != nil {
		return a, err
	}
	a.Image = img
	return a, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", slog.String("err", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, registry.ErrNoImages):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, imageannotator.ErrUnknownImage), errors.Is(err, imageannotator.ErrSuggestDisabled):
		status = http.StatusNotFound
	case errors.Is(err, processing.ErrUnknownFormat):
		status = http.StatusUnsupportedMediaType
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("err", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.Int("status", status), slog.String("err", err.Error()))
	}

	msg := err.Error()
	if status == http.StatusUnprocessableEntity {
		msg = registry.ErrNoImages.Error()
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}
