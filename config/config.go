package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"gopkg.in/yaml.v3"

	"github.com/goalkit/splash-server/admin"
	"github.com/goalkit/splash-server/db"
	"github.com/goalkit/splash-server/gateway/gatewayconfig"
	"github.com/goalkit/splash-server/publication"
	"github.com/goalkit/splash-server/store"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Mongo       db.Mongo             `yaml:"mongo"`
	Store       store.Config         `yaml:"store"`
	Publication publication.Config   `yaml:"publication"`
	Admin       admin.Config         `yaml:"admin"`
	Gateway     gatewayconfig.Config `yaml:"gateway"`
}

func (c *Config) Init(a *app.App) (err error) {
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMongo() db.Mongo {
	return c.Mongo
}

func (c *Config) GetStore() store.Config {
	return c.Store
}

func (c *Config) GetPublication() publication.Config {
	return c.Publication
}

func (c *Config) GetAdmin() admin.Config {
	return c.Admin
}

func (c *Config) GetGateway() gatewayconfig.Config {
	return c.Gateway
}
