package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/goalkit/splash-server/store"
)

const CName = "images"

var log = logger.NewNamed(CName)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrPayloadTooLarge  = errors.New("payload too large")
)

const (
	// MaxUploadSize caps accepted uploads at 5 MiB.
	MaxUploadSize = 5 << 20

	thumbMaxWidth = 480
	thumbQuality  = 80
	thumbSuffix   = ".thumb.jpg"

	publicPrefix = "/images/"
	legacyPrefix = "/uploads/"

	// PlaceholderPath is returned by Resolve for empty or unrecognized values.
	PlaceholderPath = publicPrefix + "placeholder.png"
)

var allowedExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func New() Images {
	return new(images)
}

// Images accepts uploaded image assets into the byte store and removes them
// when their publication goes away.
type Images interface {
	app.Component

	// Accept validates the upload and writes it under a generated
	// collision-resistant name, returning that name. When mimeType is empty it
	// is derived from the filename. A downscaled thumbnail is produced
	// best-effort alongside.
	Accept(ctx context.Context, file store.File, mimeType string) (storedName string, err error)
	// Remove deletes the asset and its thumbnail. Missing files are not an
	// error; Remove never fails the caller.
	Remove(ctx context.Context, stored string)
}

type images struct {
	store store.Store
}

func (i *images) Init(a *app.App) (err error) {
	i.store = a.MustComponent(store.CName).(store.Store)
	return
}

func (i *images) Name() (name string) {
	return CName
}

func (i *images) Accept(ctx context.Context, file store.File, mimeType string) (storedName string, err error) {
	if file.Len() > MaxUploadSize {
		return "", ErrPayloadTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Name))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, ext)
	}
	if mimeType == "" {
		mimeType = file.ContentType()
	}
	if mimeType != "" && !allowedMime[strings.ToLower(mimeType)] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	data, err := io.ReadAll(io.LimitReader(file.Reader, MaxUploadSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxUploadSize {
		return "", ErrPayloadTooLarge
	}
	storedName = fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
	if err = i.store.Put(ctx, storedName, bytes.NewReader(data)); err != nil {
		return "", err
	}
	i.makeThumbnail(ctx, storedName, data)
	return storedName, nil
}

func (i *images) makeThumbnail(ctx context.Context, storedName string, data []byte) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn("thumbnail: decode failed", zap.String("name", storedName), zap.Error(err))
		return
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > thumbMaxWidth {
		dst := image.NewRGBA(image.Rect(0, 0, thumbMaxWidth, h*thumbMaxWidth/w))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbQuality}); err != nil {
		log.Warn("thumbnail: encode failed", zap.String("name", storedName), zap.Error(err))
		return
	}
	if err = i.store.Put(ctx, storedName+thumbSuffix, &buf); err != nil {
		log.Warn("thumbnail: store failed", zap.String("name", storedName), zap.Error(err))
	}
}

func (i *images) Remove(ctx context.Context, stored string) {
	name := StoredName(stored)
	if name == "" {
		return
	}
	for _, key := range []string{name, name + thumbSuffix} {
		if err := i.store.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn("remove image", zap.String("name", key), zap.Error(err))
		}
	}
}

// Resolve normalizes the three historical image reference formats into one
// public retrieval path: a bare stored filename, a legacy "/uploads/<name>"
// path and an already-complete URL (returned unchanged). Empty or unrecognized
// values map to the placeholder.
func Resolve(stored string) string {
	switch {
	case stored == "":
		return PlaceholderPath
	case strings.HasPrefix(stored, "http://"), strings.HasPrefix(stored, "https://"):
		return stored
	case strings.HasPrefix(stored, legacyPrefix):
		return publicPrefix + strings.TrimPrefix(stored, legacyPrefix)
	case strings.HasPrefix(stored, publicPrefix):
		return stored
	case strings.HasPrefix(stored, "/"):
		return PlaceholderPath
	default:
		return publicPrefix + stored
	}
}

// StoredName maps any historical reference format back to the bare store key,
// or "" when the reference does not point into our store (external URLs).
func StoredName(stored string) string {
	switch {
	case stored == "":
		return ""
	case strings.HasPrefix(stored, "http://"), strings.HasPrefix(stored, "https://"):
		return ""
	case strings.HasPrefix(stored, legacyPrefix):
		return strings.TrimPrefix(stored, legacyPrefix)
	case strings.HasPrefix(stored, publicPrefix):
		return strings.TrimPrefix(stored, publicPrefix)
	case strings.HasPrefix(stored, "/"):
		return ""
	default:
		return stored
	}
}
