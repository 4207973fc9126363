package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rbright/arogya/internal/fsm"
	"github.com/rbright/arogya/internal/viewmodel"
	_ "golang.org/x/image/webp"
)

// SourceKind distinguishes how files reached the page.
type SourceKind string

const (
	SourceDrop   SourceKind = "drop"
	SourcePicker SourceKind = "picker"
)

// Source is a drop or picker payload. Only the first file is used.
type Source struct {
	Kind  SourceKind
	Files []viewmodel.Blob
}

// LoadFiles reads paths into blobs, sniffing each MIME type from content.
func LoadFiles(paths []string) ([]viewmodel.Blob, error) {
	blobs := make([]viewmodel.Blob, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		blobs = append(blobs, viewmodel.Blob{
			Name: filepath.Base(path),
			MIME: mimetype.Detect(data).String(),
			Data: data,
		})
	}
	return blobs, nil
}

// SelectImage stores the first file of src as the current image. Drops must
// be image/*; picker selections are only checked when ValidatePicker is set.
func (c *Controller) SelectImage(src Source) error {
	if len(src.Files) == 0 {
		if src.Kind == SourceDrop {
			c.vm.Notify(invalidFileNotice(src.Kind))
			return ErrInvalidFileType
		}
		return nil
	}

	file := src.Files[0]
	if (src.Kind == SourceDrop || c.validatePicker) && !strings.HasPrefix(file.MIME, "image/") {
		c.logWarn("rejected image", "source", string(src.Kind), "name", file.Name, "mime", file.MIME)
		c.vm.Notify(invalidFileNotice(src.Kind))
		return ErrInvalidFileType
	}

	c.imageGen++
	gen := c.imageGen
	selection := &viewmodel.ImageSelection{File: &file}
	c.vm.Image = selection
	c.vm.RefreshReadiness()
	c.logInfo("image selected", "source", string(src.Kind), "name", file.Name, "mime", file.MIME, "bytes", len(file.Data))

	go func() {
		p := buildPreview(file)
		c.loop.Post(func() {
			if gen != c.imageGen || c.vm.Image != selection {
				return
			}
			selection.PreviewDataURL = p.dataURL
			selection.Width, selection.Height = p.width, p.height
			c.vm.Render()
		})
	}()
	return nil
}

func invalidFileNotice(kind SourceKind) string {
	if kind == SourcePicker {
		return "Please select an image file."
	}
	return "Please drop an image file."
}

type preview struct {
	dataURL string
	width   int
	height  int
}

func buildPreview(file viewmodel.Blob) preview {
	mime := file.MIME
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	p := preview{dataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(file.Data)}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data)); err == nil {
		p.width, p.height = cfg.Width, cfg.Height
	}
	return p
}

// Reset clears the recording, the image and rendered outputs, releasing the
// microphone if a capture is still running.
func (c *Controller) Reset() {
	c.recordingGen++
	c.imageGen++
	c.releaseStream()

	c.vm.RecorderState, _ = fsm.Transition(c.vm.RecorderState, fsm.EventReset)
	c.vm.Recording = nil
	c.vm.Image = nil
	c.vm.PlayEnabled = false
	c.vm.ClearOutputs()
	c.vm.RefreshReadiness()
	c.logInfo("page cleared")
}
