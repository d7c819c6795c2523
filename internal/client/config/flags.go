package config

import (
	"flag"
	"os"

	"github.com/studaxis/studaxis/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   content-index endpoint URL
//	-k string   content-index API key
//	-u string   user (student) id
//	-d string   device id
//	-b string   base path for local data
//	-s string   default subject filter
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-k", "-u", "-d", "-b", "-s"})

	fs := flag.NewFlagSet("student", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "content-index endpoint URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "content-index API key")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "student id")
	fs.StringVar(&cfg.DeviceID, "d", cfg.DeviceID, "device id")
	fs.StringVar(&cfg.BasePath, "b", cfg.BasePath, "base path for local data")
	fs.StringVar(&cfg.Subject, "s", cfg.Subject, "default subject filter")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
