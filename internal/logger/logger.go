// Package logger provides structured loggers for the engine's subsystems.
// It wraps logrus and exposes category-specific log entries such as MainLog,
// SSDPLog, GENALog, etc. The logging level and caller reporting can be
// adjusted at runtime via InitLog.
package logger

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	moduleNameEngine = "AVENGINE"
)

var (
	initOnce sync.Once

	// MainLog is the primary logger for process lifecycle events
	// (startup, shutdown, config load).
	MainLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "MAIN",
	})

	// SSDPLog covers multicast discovery, advertisement, and device cache
	// sweeps.
	SSDPLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "SSDP",
	})

	// GENALog covers subscription lifecycle on both the client and host
	// sides, and NOTIFY delivery/receipt.
	GENALog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "GENA",
	})

	// SOAPLog covers action request/response framing and fault mapping.
	SOAPLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "SOAP",
	})

	// LastChangeLog covers per-instance variable coalescing and flush
	// scheduling.
	LastChangeLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "LASTCHANGE",
	})

	// ControlPointLog covers the service-client framework: SCPD adoption,
	// action dispatch, event demultiplexing.
	ControlPointLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "CONTROLPOINT",
	})

	// DeviceHostLog covers the service-host framework: variable store,
	// action dispatch, subscription responses.
	DeviceHostLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "DEVICEHOST",
	})

	// SchedulerLog covers periodic jobs (SSDP sweep/announce, GENA renewal
	// and expiry sweeps).
	SchedulerLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "SCHEDULER",
	})

	// ContextLog covers runtime state changes (device cache entries,
	// subscription tables, shutdown flag).
	ContextLog = log.WithFields(log.Fields{
		"module":   moduleNameEngine,
		"category": "CONTEXT",
	})
)

// InitLog configures the global logrus settings and initializes all category
// loggers. It is safe to call multiple times; the first call wins for
// formatter/category setup. Subsequent calls still update the log level and
// reportCaller flag.
func InitLog(levelString string, reportCaller bool) error {
	var initErr error

	initOnce.Do(func() {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})

		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(reportCaller)
	})

	parsedLevel, parseErr := parseLogLevel(levelString)
	if parseErr != nil {
		log.SetLevel(log.InfoLevel)
		if MainLog != nil {
			MainLog.Warnf("invalid log level %q, falling back to info: %v", levelString, parseErr)
		}
		initErr = parseErr
	} else {
		log.SetLevel(parsedLevel)
	}

	log.SetReportCaller(reportCaller)

	return initErr
}

// parseLogLevel converts a string log level (case-insensitive) into a logrus.Level.
func parseLogLevel(levelString string) (log.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelString))

	switch normalized {
	case "trace":
		return log.TraceLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	case "panic":
		return log.PanicLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level: %s", levelString)
	}
}
