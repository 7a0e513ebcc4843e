package fleet

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger zerolog.Logger
	once   sync.Once
)

// Logger returns the process-wide structured logger for the fleet
// autoscaler, initialized once at info level.
func Logger() zerolog.Logger {
	once.Do(func() {
		console := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(console).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return logger
}
