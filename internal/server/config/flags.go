package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret
//	-t int      session token validity, minutes
//	-l int      login attempts allowed per window
//	-w int      login rate window, seconds
//	-x string   trusted proxies, comma separated
//	-k bool     mark the session cookie Secure
//	-o int      store timeout, seconds
//	-n string   allowed WebSocket origins, comma separated
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i int      presigned image URL validity, minutes
//
// Duration flags are whole minutes or seconds as noted and are converted
// to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-l", "-w", "-x", "-k", "-o", "-n", "-u", "-p", "-b", "-g", "-e", "-i",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.IntVar(&config.LoginRateLimit, "l", config.LoginRateLimit, "login attempts per window")
	rateWindow := fs.Int("w", int(config.LoginRateWindow.Seconds()), "login rate window (in seconds)")
	trustedProxies := fs.String("x", strings.Join(config.TrustedProxies, ","), "trusted proxies")
	fs.BoolVar(&config.SecureCookies, "k", config.SecureCookies, "secure cookies")
	storeTimeout := fs.Int("o", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")
	allowedOrigins := fs.String("n", strings.Join(config.AllowedOrigins, ","), "allowed websocket origins")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	imageValidity := fs.Int("i", int(config.ImageURLValidity.Minutes()), "image url validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.LoginRateWindow = time.Duration(*rateWindow) * time.Second
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
	config.ImageURLValidity = time.Duration(*imageValidity) * time.Minute
	config.TrustedProxies = flagx.SplitList(*trustedProxies)
	config.AllowedOrigins = flagx.SplitList(*allowedOrigins)
}
