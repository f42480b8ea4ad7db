package admin

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/publication"
)

const CName = "admin"

var log = logger.NewNamed(CName)

type Config struct {
	Addr string `yaml:"addr"`
}

type configGetter interface {
	GetAdmin() Config
}

func New() Admin {
	return new(adminServer)
}

// Admin serves the back-office CRUD API for splash publications. The
// authenticating proxy in front of it is expected to set X-Admin-Id.
type Admin interface {
	app.ComponentRunnable
}

type adminServer struct {
	echo        *echo.Echo
	publication publication.Service
	conf        Config
}

func (s *adminServer) Name() (name string) {
	return CName
}

func (s *adminServer) Init(a *app.App) (err error) {
	s.publication = a.MustComponent(publication.CName).(publication.Service)
	s.conf = a.MustComponent("config").(configGetter).GetAdmin()
	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes(s.echo)
	return
}

func (s *adminServer) routes(e *echo.Echo) {
	g := e.Group("/admin/publications")
	g.GET("", s.list)
	g.POST("", s.create)
	g.PUT("/:id", s.update)
	g.DELETE("/:id", s.delete)
	g.PATCH("/:id/toggle", s.toggle)
}

func (s *adminServer) Run(ctx context.Context) (err error) {
	var errCh = make(chan error)
	go func() {
		errCh <- s.echo.Start(s.conf.Addr)
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("admin server started", zap.String("addr", s.conf.Addr))
		return
	}
}

func (s *adminServer) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
