package ports

import (
	"time"

	"github.com/bft-labs/liveagent/pkg/log"
)

// Logger is the structured logger every component receives.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors, re-exported so internal packages import only ports.
func String(key, value string) Field                 { return log.String(key, value) }
func Int(key string, value int) Field                { return log.Int(key, value) }
func Float64(key string, value float64) Field        { return log.Float64(key, value) }
func Bool(key string, value bool) Field              { return log.Bool(key, value) }
func Duration(key string, value time.Duration) Field { return log.Duration(key, value) }
func Err(err error) Field                            { return log.Err(err) }
