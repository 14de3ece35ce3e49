package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
)

var serverFlags = []string{
	"-a", "-g", "-d", "-u", "-b", "-k", "-l",
	"-master-key-file", "-artifacts-dir", "-max-content-length-mb", "-max-file-count",
	"-default-expiration", "-delete-grace", "-sweep-interval", "-conceal-missing",
	"-verify-upload-proof", "-admin-secret",
}

// parseFlags populates Config fields from command-line flags.
//
// Short forms:
//
//	-a string   HTTP bind address (e.g., ":5001")
//	-g string   gRPC ops bind address (e.g., ":50051")
//	-d string   metadata database DSN (sqlite path or postgres:// URL)
//	-u string   upload directory for the fs backend
//	-b string   storage backend: fs, bolt or s3
//	-k string   master key (hex or base64)
//	-l string   log level
//
// Boolean flags must be given as -flag=true or -flag=false.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC ops address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "metadata database DSN")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (fs|bolt|s3)")
	fs.StringVar(&config.MasterKey, "k", config.MasterKey, "master key, hex or base64")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug|info|warn|error)")

	fs.StringVar(&config.MasterKeyFile, "master-key-file", config.MasterKeyFile, "file holding the master key")
	fs.StringVar(&config.ArtifactsDir, "artifacts-dir", config.ArtifactsDir, "directory with verification_key.json")
	fs.Int64Var(&config.MaxContentLengthMB, "max-content-length-mb", config.MaxContentLengthMB, "upload limit in MB")
	fs.IntVar(&config.MaxFileCount, "max-file-count", config.MaxFileCount, "max files per upload")
	fs.DurationVar(&config.DefaultExpiration, "default-expiration", config.DefaultExpiration, "expiry used when none is requested")
	fs.DurationVar(&config.DeleteGrace, "delete-grace", config.DeleteGrace, "delay before consume-once deletion")
	fs.DurationVar(&config.SweepInterval, "sweep-interval", config.SweepInterval, "expiry sweep period, 0 disables")
	fs.BoolVar(&config.ConcealMissing, "conceal-missing", config.ConcealMissing, "answer 403 for missing objects")
	fs.BoolVar(&config.VerifyUploadProof, "verify-upload-proof", config.VerifyUploadProof, "verify the proof sent with uploads")
	fs.StringVar(&config.AdminSecret, "admin-secret", config.AdminSecret, "HMAC secret for admin tokens")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
