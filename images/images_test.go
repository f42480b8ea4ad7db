package images

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalkit/splash-server/store"
)

var ctx = context.Background()

func pngBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestImages_Accept(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		fx := newFixture(t)
		data := pngBytes(t, 10, 10)
		name, err := fx.Accept(ctx, store.File{Name: "logo.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "image/png")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(name, ".png"))

		rc, err := fx.store.Get(ctx, name)
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, data, got)
	})
	t.Run("thumbnail stored alongside", func(t *testing.T) {
		fx := newFixture(t)
		data := pngBytes(t, 800, 600)
		name, err := fx.Accept(ctx, store.File{Name: "wide.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "image/png")
		require.NoError(t, err)
		rc, err := fx.store.Get(ctx, name+thumbSuffix)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
	})
	t.Run("unique names for identical uploads", func(t *testing.T) {
		fx := newFixture(t)
		data := pngBytes(t, 4, 4)
		n1, err := fx.Accept(ctx, store.File{Name: "a.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "image/png")
		require.NoError(t, err)
		n2, err := fx.Accept(ctx, store.File{Name: "a.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "image/png")
		require.NoError(t, err)
		assert.NotEqual(t, n1, n2)
	})
	t.Run("derives mime from filename when undeclared", func(t *testing.T) {
		fx := newFixture(t)
		data := pngBytes(t, 4, 4)
		name, err := fx.Accept(ctx, store.File{Name: "logo.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(name, ".png"))
	})
	t.Run("rejects extension", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.Accept(ctx, store.File{Name: "report.pdf", ContentSize: 3, Reader: strings.NewReader("abc")}, "application/pdf")
		assert.ErrorIs(t, err, ErrUnsupportedMedia)
	})
	t.Run("rejects mismatched mime", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.Accept(ctx, store.File{Name: "x.png", ContentSize: 3, Reader: strings.NewReader("abc")}, "text/html")
		assert.ErrorIs(t, err, ErrUnsupportedMedia)
	})
	t.Run("rejects oversize before storing", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.Accept(ctx, store.File{Name: "big.png", ContentSize: 6 << 20, Reader: strings.NewReader("abc")}, "image/png")
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})
	t.Run("rejects oversize body with understated size", func(t *testing.T) {
		fx := newFixture(t)
		body := io.MultiReader(bytes.NewReader(pngBytes(t, 2, 2)), bytes.NewReader(make([]byte, MaxUploadSize)))
		_, err := fx.Accept(ctx, store.File{Name: "sneaky.png", ContentSize: 100, Reader: body}, "image/png")
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})
}

func TestImages_Remove(t *testing.T) {
	fx := newFixture(t)
	data := pngBytes(t, 10, 10)
	name, err := fx.Accept(ctx, store.File{Name: "logo.png", ContentSize: len(data), Reader: bytes.NewReader(data)}, "image/png")
	require.NoError(t, err)

	fx.Remove(ctx, name)
	_, err = fx.store.Get(ctx, name)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = fx.store.Get(ctx, name+thumbSuffix)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// idempotent
	fx.Remove(ctx, name)
	// external references are not ours to delete
	fx.Remove(ctx, "https://cdn.example.com/x/legacy.png")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "/images/legacyname.png", Resolve("legacyname.png"))
	assert.Equal(t, "/images/legacyname.png", Resolve("/uploads/legacyname.png"))
	assert.Equal(t, "/images/legacyname.png", Resolve("/images/legacyname.png"))
	assert.Equal(t, "https://host/x/legacyname.png", Resolve("https://host/x/legacyname.png"))
	assert.Equal(t, PlaceholderPath, Resolve(""))
	assert.Equal(t, PlaceholderPath, Resolve("/etc/passwd"))
}

func TestStoredName(t *testing.T) {
	assert.Equal(t, "a.png", StoredName("a.png"))
	assert.Equal(t, "a.png", StoredName("/uploads/a.png"))
	assert.Equal(t, "a.png", StoredName("/images/a.png"))
	assert.Equal(t, "", StoredName("https://host/a.png"))
	assert.Equal(t, "", StoredName(""))
}

type fixture struct {
	Images
	store store.Store
	a     *app.App
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		Images: New(),
		store:  store.New(),
		a:      new(app.App),
	}
	config := &testConfig{
		store: store.Config{
			Type:  store.TypeLocal,
			Local: store.Local{Dir: t.TempDir()},
		},
	}
	fx.a.Register(config).Register(fx.store).Register(fx.Images)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		require.NoError(t, fx.a.Close(ctx))
	})
	return fx
}

type testConfig struct {
	store store.Config
}

func (t testConfig) Init(a *app.App) (err error) { return }
func (t testConfig) Name() (name string)         { return "config" }

func (t testConfig) GetStore() store.Config {
	return t.store
}
