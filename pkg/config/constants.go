package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified envconfig tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FRESHBASKET_DB_DSN"
	EnvDBHost = "FRESHBASKET_DB_HOST"
	EnvDBUser = "FRESHBASKET_DB_USER"
	EnvDBName = "FRESHBASKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
