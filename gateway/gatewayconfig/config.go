package gatewayconfig

type ConfigGetter interface {
	GetGateway() Config
}

type Config struct {
	Addr           string `yaml:"addr"`
	DefaultLocale  string `yaml:"defaultLocale"`
	FallbackLocale string `yaml:"fallbackLocale"`
}
