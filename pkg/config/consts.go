package config

const (
	EnvPrefix = "MARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKET_DB_DSN"
	EnvDBHost = "MARKET_DB_HOST"
	EnvDBUser = "MARKET_DB_USER"
	EnvDBName = "MARKET_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
