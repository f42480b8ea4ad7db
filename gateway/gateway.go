package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/domain"
	"github.com/goalkit/splash-server/gateway/gatewayconfig"
	"github.com/goalkit/splash-server/images"
	"github.com/goalkit/splash-server/publication"
	"github.com/goalkit/splash-server/publication/publicationrepo"
	"github.com/goalkit/splash-server/store"
)

func New() Gateway {
	return new(gateway)
}

const CName = "gateway"

var log = logger.NewNamed(CName)

// Gateway is the unauthenticated public surface: the current splash
// publication and image asset retrieval.
type Gateway interface {
	app.ComponentRunnable
}

type gateway struct {
	mux         *http.ServeMux
	server      *http.Server
	publication publication.Service
	store       store.Store
	config      gatewayconfig.Config
}

func (g *gateway) Name() (name string) {
	return CName
}

func (g *gateway) Init(a *app.App) (err error) {
	g.publication = a.MustComponent(publication.CName).(publication.Service)
	g.store = a.MustComponent(store.CName).(store.Store)
	g.config = a.MustComponent("config").(gatewayconfig.ConfigGetter).GetGateway()
	g.mux = http.NewServeMux()
	g.mux.HandleFunc("GET /api/splash/active", g.activeHandler)
	g.mux.HandleFunc("GET /images/{name}", g.imageHandler)
	g.server = &http.Server{Addr: g.config.Addr, Handler: g.mux}
	return
}

func (g *gateway) Run(ctx context.Context) (err error) {
	var errCh = make(chan error)
	go func() {
		errCh <- g.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("gateway server started", zap.String("addr", g.config.Addr))
		return
	}
}

type activeView struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	UpdatedAt   int64  `json:"updatedAt"`
	Active      bool   `json:"active"`
}

type inactiveView struct {
	Active bool `json:"active"`
}

func (g *gateway) activeHandler(w http.ResponseWriter, r *http.Request) {
	pub, err := g.publication.GetActive(r.Context())
	if err != nil {
		if errors.Is(err, publicationrepo.ErrNotFound) {
			writeJSON(w, http.StatusOK, inactiveView{Active: false})
			return
		}
		log.Error("get active publication", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = g.config.DefaultLocale
	}
	writeJSON(w, http.StatusOK, toActiveView(pub, locale, g.config.FallbackLocale))
}

func toActiveView(pub domain.Publication, locale, fallback string) activeView {
	return activeView{
		Id:          pub.Id.Hex(),
		Title:       domain.Localize(pub.Title, locale, fallback),
		Description: domain.Localize(pub.Description, locale, fallback),
		Image:       images.Resolve(pub.Image),
		UpdatedAt:   pub.UpdatedAt,
		Active:      true,
	}
}

func (g *gateway) imageHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) {
		http.NotFound(w, r)
		return
	}
	reader, err := g.store.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error("read image", zap.String("name", name), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	defer func() {
		_ = reader.Close()
	}()
	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err = io.Copy(w, reader); err != nil {
		log.Warn("write image response", zap.String("name", name), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(v)
	_, _ = w.Write(data)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: err.Error()})
}

func (g *gateway) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}
