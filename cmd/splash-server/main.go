package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/goalkit/splash-server/admin"
	"github.com/goalkit/splash-server/config"
	"github.com/goalkit/splash-server/db"
	"github.com/goalkit/splash-server/gateway"
	"github.com/goalkit/splash-server/images"
	"github.com/goalkit/splash-server/publication"
	"github.com/goalkit/splash-server/publication/publicationrepo"
	"github.com/goalkit/splash-server/store"
)

var log = logger.NewNamed("main")

const version = "v0.1.0"

var (
	flagConfigFile = flag.String("c", "etc/config.yml", "path to config file")
	flagVersion    = flag.Bool("v", false, "show version and exit")
)

func main() {
	flag.Parse()
	if *flagVersion {
		fmt.Println("splash-server", version)
		return
	}

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}

	a := new(app.App)
	a.Register(conf).
		Register(db.New()).
		Register(store.New()).
		Register(images.New()).
		Register(publicationrepo.New()).
		Register(publication.New()).
		Register(admin.New()).
		Register(gateway.New())

	ctx := context.Background()
	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started", zap.String("version", version))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	sig := <-exit
	log.Info("received exit signal, stopping", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
	log.Info("goodbye!")
}
