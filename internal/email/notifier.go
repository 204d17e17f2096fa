// Package email selects the report notifier from configuration.
package email

import (
	"fmt"

	"finsync/internal/config"
	"finsync/internal/email/noop"
	"finsync/internal/email/ses"
	"finsync/internal/port"
)

// NewNotifier returns the configured ReportNotifier.
func NewNotifier(cfg *config.NotifyConfig) (port.ReportNotifier, error) {
	switch cfg.Provider {
	case "", "noop":
		return noop.NewNoopSender(), nil
	case "ses":
		return ses.NewSESSender(cfg)
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Provider)
	}
}
