package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MaxImageWidth bounds stored images; wider uploads are downscaled.
const MaxImageWidth = 1920

// UploadHandler stores admin image uploads under Dir, served at URLPrefix.
type UploadHandler struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
	Allowed   map[string]bool // sniffed MIME types accepted
	Logger    *slog.Logger
}

// NewUploadHandler builds the allow-list lookup from types.
func NewUploadHandler(dir string, maxBytes int64, types []string, logger *slog.Logger) *UploadHandler {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			allowed[t] = true
		}
	}
	return &UploadHandler{Dir: dir, URLPrefix: "/uploads", MaxBytes: maxBytes, Allowed: allowed, Logger: logger}
}

type uploadResp struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// detectMimeType sniffs data, dropping any parameters.
func detectMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i != -1 {
		ct = ct[:i]
	}
	return ct
}

// Upload handles POST /api/admin/upload with a multipart "image" field.
// The file type is sniffed from its content, never taken from the client.
// The image is decoded, downscaled to MaxImageWidth and re-encoded, which
// also strips metadata.  PNG and GIF become PNG; everything else JPEG.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fail(c, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
		}
		return fail(c, http.StatusBadRequest, MsgNoFile)
	}
	if fh.Size > h.MaxBytes {
		return fail(c, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.MaxBytes+1))
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	if int64(len(data)) > h.MaxBytes {
		return fail(c, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
	}
	mime := detectMimeType(data)
	if !h.Allowed[mime] {
		return fail(c, http.StatusUnsupportedMediaType, MsgUnsupportedType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		h.Logger.Debug("undecodable upload", slog.String("mime", mime), slog.Any("error", err))
		return fail(c, http.StatusUnsupportedMediaType, MsgUnsupportedType)
	}
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	name, err := h.save(img, mime)
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	b := img.Bounds()
	h.Logger.Info("image uploaded", slog.String("file", name), slog.Int("width", b.Dx()), slog.Int("height", b.Dy()))
	return c.JSON(http.StatusCreated, uploadResp{
		Success: true,
		URL:     h.URLPrefix + "/" + name,
		Width:   b.Dx(),
		Height:  b.Dy(),
	})
}

// save encodes img under a random name and returns the name.
func (h *UploadHandler) save(img image.Image, mime string) (string, error) {
	ext, format := ".jpg", imaging.JPEG
	if mime == "image/png" || mime == "image/gif" {
		ext, format = ".png", imaging.PNG
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	path := filepath.Join(h.Dir, name)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if err := imaging.Encode(out, img, format, imaging.JPEGQuality(85)); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return name, nil
}
