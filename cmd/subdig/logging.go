// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the standard logger according to the logging
// configuration, returning a function to release the log file, if any.
func setupLogging(cfg *config) (func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}
	logfile := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // MiB
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(logfile)
	return func() {
		log.SetOutput(os.Stderr)
		_ = logfile.Close()
	}, nil
}
