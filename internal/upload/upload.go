package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// FieldName is the multipart field carrying the product image.
const FieldName = "productImage"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ErrNotAccepted is returned when persisting a result that holds no accepted file.
var ErrNotAccepted = errors.New("upload: no accepted file to persist")

// Status tells apart the three possible outcomes of receiving a file.
type Status int

const (
	// Absent means the request carried no file.
	Absent Status = iota
	// Accepted means the file passed the content-type filter.
	Accepted
	// Rejected means a file was sent but is not allowed.
	Rejected
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// File is an uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromHeader adapts a multipart file header. A nil header yields nil.
func FromHeader(fh *multipart.FileHeader) *File {
	if fh == nil {
		return nil
	}
	return &File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Result is the outcome of inspecting an uploaded file. Nothing is written to
// storage until Persist is called with an Accepted result.
type Result struct {
	Status Status
	Reason string
	file   *File
}

// Filename returns the client-supplied name of the inspected file.
func (r Result) Filename() string {
	if r.file == nil {
		return ""
	}
	return r.file.Name
}

// Config controls where and how files are stored.
type Config struct {
	Root             string
	MaxBytes         int64
	KeepOriginalName bool
}

// Handler filters and stores product images.
type Handler struct {
	fs  afero.Fs
	cfg Config
}

// NewHandler returns a Handler storing files on fs under cfg.Root.
func NewHandler(fs afero.Fs, cfg Config) *Handler {
	if cfg.Root == "" {
		cfg.Root = "uploads"
	}
	return &Handler{fs: fs, cfg: cfg}
}

// Inspect classifies f without storing it. A nil file is Absent; a file whose
// declared or detected type is not an allowed image, or that exceeds the size
// limit, is Rejected.
func (h *Handler) Inspect(f *File) Result {
	if f == nil {
		return Result{Status: Absent}
	}

	declared := declaredType(f)
	if _, ok := allowedTypes[declared]; !ok {
		return Result{Status: Rejected, Reason: fmt.Sprintf("Only image/jpeg and image/png files are allowed, got %q", declared), file: f}
	}

	if h.cfg.MaxBytes > 0 && f.Size > h.cfg.MaxBytes {
		return Result{Status: Rejected, Reason: fmt.Sprintf("File must not exceed %d bytes", h.cfg.MaxBytes), file: f}
	}

	detected, err := h.detect(f)
	if err != nil {
		return Result{Status: Rejected, Reason: "File could not be read", file: f}
	}
	if _, ok := allowedTypes[detected]; !ok {
		return Result{Status: Rejected, Reason: fmt.Sprintf("File content is %s, not an allowed image", detected), file: f}
	}

	return Result{Status: Accepted, file: f}
}

func (h *Handler) detect(f *File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	mtype, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", err
	}
	return strings.SplitN(mtype.String(), ";", 2)[0], nil
}

// Persist writes an Accepted file to storage and returns its path.
func (h *Handler) Persist(ctx context.Context, r Result) (string, error) {
	if r.Status != Accepted || r.file == nil {
		return "", ErrNotAccepted
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := path.Join(filepath.ToSlash(h.cfg.Root), h.key(r.file))

	rc, err := r.file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer rc.Close()

	if err := afero.WriteReader(h.fs, dst, rc); err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	return dst, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (h *Handler) Remove(p string) error {
	if p == "" {
		return nil
	}
	if err := h.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

// key names the stored file. The client name is used verbatim only when
// configured; otherwise a generated name avoids collisions.
func (h *Handler) key(f *File) string {
	base := path.Base(filepath.ToSlash(f.Name))
	if h.cfg.KeepOriginalName && base != "." && base != "/" && base != ".." {
		return base
	}

	return uuid.NewString() + allowedTypes[declaredType(f)]
}

func declaredType(f *File) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
}
