package datalake

import (
	"log"
	"time"
)

// Statter is the interface for counting what the job does: records
// decoded, rows written, duplicates dropped.
type Statter interface {
	Count(name string, value int64, rate float64, tags ...string)
	Gauge(name string, value float64, rate float64, tags ...string)
	Histogram(name string, value float64, rate float64, tags ...string)
	Set(name string, value string, rate float64, tags ...string)
	Timing(name string, value time.Duration, rate float64, tags ...string)
}

// NopStatter does nothing.
type NopStatter struct{}

// Count does nothing.
func (n NopStatter) Count(name string, value int64, rate float64, tags ...string) {}

// Gauge does nothing.
func (n NopStatter) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (n NopStatter) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (n NopStatter) Set(name string, value string, rate float64, tags ...string) {}

// Timing does nothing.
func (n NopStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}

// Logger is the interface for logging.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// StdLogger only prints on Printf.
type StdLogger struct {
	*log.Logger
}

// Debugf is a no-op.
func (s StdLogger) Debugf(format string, v ...interface{}) {}

// VerboseLogger prints on both Printf and Debugf.
type VerboseLogger struct {
	*log.Logger
}

// Debugf prints the args with the embedded logger.
func (vl VerboseLogger) Debugf(format string, v ...interface{}) {
	vl.Logger.Printf(format, v...)
}

// NopLogger logs nothing.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (n nopLogger) Printf(format string, v ...interface{}) {}
func (n nopLogger) Debugf(format string, v ...interface{}) {}
