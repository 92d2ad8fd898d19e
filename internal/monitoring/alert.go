package monitoring

import (
	"github.com/rs/zerolog/log"
)

// Alert sends a mock alert (logs for now)
func Alert(message string, labels map[string]string) {
	ev := log.Error().Str("alert", message)
	for k, v := range labels {
		ev = ev.Str(k, v)
	}
	ev.Msg("ALERT: Integration issue detected")
}
