package publication

type configGetter interface {
	GetPublication() Config
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLSec   int    `yaml:"ttlSec"`
}

type Config struct {
	Redis Redis `yaml:"redis"`
}
