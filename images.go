package folio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/views"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an upload, scales it down to maxImageWidth when wider
// and re-encodes it as JPEG.
func processImage(src io.Reader, originalName string) (content.Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return content.Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return content.Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := content.Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return content.Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC(),
	}, buf.Bytes(), nil
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.Config.Server.StaticDir, uploadsSubdir)
}

// uniqueFilename appends -2, -3, ... until the name is free both on disk and
// in the images table.
func (a *App) uniqueFilename(ctx context.Context, name string) (string, error) {
	base := strings.TrimSuffix(name, ".jpg")
	candidate := name
	for n := 2; ; n++ {
		_, statErr := os.Stat(filepath.Join(a.uploadsDir(), candidate))
		exists, err := a.Store.ImageExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if os.IsNotExist(statErr) && !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	ctx := c.Request().Context()
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(io.LimitReader(src, maxUploadSize), file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	if img.Filename, err = a.uniqueFilename(ctx, img.Filename); err != nil {
		return err
	}

	if err := os.MkdirAll(a.uploadsDir(), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.uploadsDir(), img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveImage(ctx, img); err != nil {
		return err
	}
	a.Logger.Info("image uploaded", zap.String("filename", img.Filename), zap.Int("bytes", img.Size))
	return a.renderImageList(c)
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == "/" {
		return c.String(http.StatusBadRequest, "Filename required")
	}
	// A missing file is fine; the row is what the list shows.
	_ = os.Remove(filepath.Join(a.uploadsDir(), filename))
	if err := a.Store.DeleteImage(c.Request().Context(), filename); err != nil {
		return err
	}
	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(views.AdminImagesData{
		Page:   a.page(c, "", "Images"),
		Images: images,
	}))
}
