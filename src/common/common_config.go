package common

type CommonConfig struct {
	PostgresConfig  string `yaml:"postgres"`
	RedisAddress    string `yaml:"redis_address"`
	PromPort        string `yaml:"prom_port"`
	HealthCheckPort string `yaml:"health_check_port"`
	ChainId         string `yaml:"chain_id"`
}
