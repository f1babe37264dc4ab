package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/runavault/internal/flagx"
	"github.com/dmitrijs2005/runavault/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations use
// timex.Duration, so both "1m" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	Store                       string          `json:"store"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	TablePrefix                 *string         `json:"table_prefix"`
	AWSRegion                   string          `json:"aws_region"`
	AWSAccessKeyID              string          `json:"aws_access_key_id"`
	AWSSecretAccessKey          string          `json:"aws_secret_access_key"`
	DynamoEndpoint              string          `json:"dynamo_endpoint"`
	RunMigrations               *bool           `json:"run_migrations"`
	LogLevel                    string          `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c or -config onto
// config. Fields missing from the file keep their current value. An
// unreadable file or invalid JSON panics, like a bad flag does.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.Store, c.Store)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.TablePrefix != nil {
		config.TablePrefix = *c.TablePrefix
	}
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	setString(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	setString(&config.DynamoEndpoint, c.DynamoEndpoint)
	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
