package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Init configures the process-wide logger. The level comes from LOG_LEVEL
// and defaults to info.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
