package util

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger. Unknown levels fall back to info.
func SetupLogger(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return lvl
}
