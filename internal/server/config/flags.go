package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/runavault/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-t", "-x", "-g", "-u", "-p", "-e", "-n", "-l"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   store backend: dynamodb, postgres or memory
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      devtoken validity, minutes
//	-x string   DynamoDB table prefix
//	-g string   AWS region
//	-u string   AWS access key id
//	-p string   AWS secret access key
//	-e string   DynamoDB endpoint override (e.g., "http://127.0.0.1:8000")
//	-n bool     run schema migrations on start (use -n=false to skip)
//	-l string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.Store, "m", config.Store, "store backend (dynamodb|postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.TablePrefix, "x", config.TablePrefix, "DynamoDB table prefix")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSAccessKeyID, "u", config.AWSAccessKeyID, "AWS access key id")
	fs.StringVar(&config.AWSSecretAccessKey, "p", config.AWSSecretAccessKey, "AWS secret access key")
	fs.StringVar(&config.DynamoEndpoint, "e", config.DynamoEndpoint, "DynamoDB endpoint")
	fs.BoolVar(&config.RunMigrations, "n", config.RunMigrations, "run migrations on start")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
