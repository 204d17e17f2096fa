package app

import (
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"finsync/internal/config"
)

// ConfigureLogging applies log settings to the standard logger and gin.
// Format "plain" drops timestamps for platforms that add their own; any
// other value keeps date, time and microseconds. Gin runs in debug mode only
// at level "debug".
func ConfigureLogging(cfg *config.LogConfig) {
	log.SetOutput(os.Stderr)
	switch strings.ToLower(cfg.Format) {
	case "plain":
		log.SetFlags(0)
	default:
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	if strings.EqualFold(cfg.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}
