package publication

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goalkit/splash-server/db"
	"github.com/goalkit/splash-server/images"
	"github.com/goalkit/splash-server/publication/publicationrepo"
	"github.com/goalkit/splash-server/store"
)

var ctx = context.Background()

func testUpload(t *testing.T) (store.File, string) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return store.File{Name: "logo.png", ContentSize: buf.Len(), Reader: bytes.NewReader(buf.Bytes())}, "image/png"
}

func TestService_CreateThenToggle(t *testing.T) {
	fx := newFixture(t)
	file, mime := testUpload(t)
	pub, err := fx.Create(ctx, "admin1", "Welcome", "Season start", file, mime)
	require.NoError(t, err)
	assert.False(t, pub.IsActive)

	// nothing is active until an explicit activation
	_, err = fx.GetActive(ctx)
	assert.ErrorIs(t, err, publicationrepo.ErrNotFound)

	active, err := fx.Toggle(ctx, pub.Id)
	require.NoError(t, err)
	assert.True(t, active)
	got, err := fx.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, pub.Id, got.Id)

	active, err = fx.Toggle(ctx, pub.Id)
	require.NoError(t, err)
	assert.False(t, active)
	_, err = fx.GetActive(ctx)
	assert.ErrorIs(t, err, publicationrepo.ErrNotFound)
}

func TestService_CreateValidation(t *testing.T) {
	fx := newFixture(t)
	file, mime := testUpload(t)
	_, err := fx.Create(ctx, "admin1", " ", "d", file, mime)
	assert.ErrorIs(t, err, publicationrepo.ErrValidation)
	_, err = fx.Create(ctx, "admin1", "Welcome", "d", store.File{}, "")
	assert.ErrorIs(t, err, publicationrepo.ErrValidation)
	_, err = fx.Create(ctx, "", "Welcome", "d", file, mime)
	assert.ErrorIs(t, err, publicationrepo.ErrValidation)
}

func TestService_TwoPublicationsOneActive(t *testing.T) {
	fx := newFixture(t)
	file1, mime := testUpload(t)
	p1, err := fx.Create(ctx, "admin1", "P1", "", file1, mime)
	require.NoError(t, err)
	_, err = fx.Toggle(ctx, p1.Id)
	require.NoError(t, err)

	file2, _ := testUpload(t)
	p2, err := fx.Create(ctx, "admin1", "P2", "", file2, mime)
	require.NoError(t, err)
	// creating a publication defensively deactivates everything
	_, err = fx.GetActive(ctx)
	assert.ErrorIs(t, err, publicationrepo.ErrNotFound)

	_, err = fx.Toggle(ctx, p2.Id)
	require.NoError(t, err)
	got, err := fx.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, p2.Id, got.Id)

	pubs, total, err := fx.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	var activeCount int
	for _, pub := range pubs {
		if pub.IsActive {
			activeCount++
			assert.Equal(t, p2.Id, pub.Id)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestService_DeactivateIdempotent(t *testing.T) {
	fx := newFixture(t)
	file, mime := testUpload(t)
	pub, err := fx.Create(ctx, "admin1", "P", "", file, mime)
	require.NoError(t, err)
	require.NoError(t, fx.Deactivate(ctx, pub.Id))
	require.NoError(t, fx.Deactivate(ctx, pub.Id))
	got, err := fx.GetById(ctx, pub.Id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestService_DeleteRemovesAsset(t *testing.T) {
	fx := newFixture(t)
	file, mime := testUpload(t)
	pub, err := fx.Create(ctx, "admin1", "P", "", file, mime)
	require.NoError(t, err)
	_, err = fx.store.Get(ctx, pub.Image)
	require.NoError(t, err)

	require.NoError(t, fx.Delete(ctx, pub.Id))
	_, err = fx.GetById(ctx, pub.Id)
	assert.ErrorIs(t, err, publicationrepo.ErrNotFound)
	_, err = fx.store.Get(ctx, pub.Image)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, fx.Delete(ctx, pub.Id), publicationrepo.ErrNotFound)
}

func TestService_UpdateReplacesAsset(t *testing.T) {
	fx := newFixture(t)
	file, mime := testUpload(t)
	pub, err := fx.Create(ctx, "admin1", "P", "old", file, mime)
	require.NoError(t, err)

	replacement, _ := testUpload(t)
	require.NoError(t, fx.Update(ctx, pub.Id, "P2", "new", &replacement, mime))
	got, err := fx.GetById(ctx, pub.Id)
	require.NoError(t, err)
	assert.Equal(t, "P2", got.Title)
	assert.Equal(t, "new", got.Description)
	assert.NotEqual(t, pub.Image, got.Image)
	_, err = fx.store.Get(ctx, pub.Image)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = fx.store.Get(ctx, got.Image)
	require.NoError(t, err)
}

func TestService_ToggleUnknownId(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.Toggle(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, publicationrepo.ErrNotFound)
}

func TestService_ActivateContention(t *testing.T) {
	fx := newFixture(t)
	fileA, mime := testUpload(t)
	a, err := fx.Create(ctx, "admin1", "A", "", fileA, mime)
	require.NoError(t, err)
	fileB, _ := testUpload(t)
	b, err := fx.Create(ctx, "admin1", "B", "", fileB, mime)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []primitive.ObjectID{a.Id, b.Id} {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			assert.NoError(t, fx.Activate(ctx, id))
		}(id)
	}
	wg.Wait()

	pubs, _, err := fx.List(ctx, 1, 10, "")
	require.NoError(t, err)
	var activeCount int
	for _, pub := range pubs {
		if pub.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

type fixture struct {
	Service
	store store.Store
	a     *app.App
}

func newFixture(t testing.TB) *fixture {
	repo := publicationrepo.New()
	fx := &fixture{
		Service: New(),
		store:   store.New(),
		a:       new(app.App),
	}
	fx.a.Register(&testConfig{
		mongo: db.Mongo{
			Connect:  "mongodb://localhost:27017",
			Database: "splash_unittest",
		},
		store: store.Config{
			Type:  store.TypeLocal,
			Local: store.Local{Dir: t.TempDir()},
		},
	}).
		Register(db.New()).
		Register(fx.store).
		Register(images.New()).
		Register(repo).
		Register(fx.Service)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		_ = fx.a.MustComponent(db.CName).(db.Database).Db().Collection("publication").Drop(ctx)
		require.NoError(t, fx.a.Close(ctx))
	})
	return fx
}

type testConfig struct {
	mongo db.Mongo
	store store.Config
}

func (t testConfig) Init(a *app.App) (err error) { return }
func (t testConfig) Name() (name string)         { return "config" }

func (t testConfig) GetMongo() db.Mongo {
	return t.mongo
}

func (t testConfig) GetStore() store.Config {
	return t.store
}

func (t testConfig) GetPublication() Config {
	return Config{}
}
