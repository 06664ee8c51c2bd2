// Package logger provides the zerolog implementation of the core logger.
package logger

import corelogger "github.com/kilianp07/fieldsim/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// Options tune the loggers created by New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty keeps info.
	Level string
	// Console forces the human readable writer. APP_ENV=dev enables it too.
	Console bool
}

var defaults Options

// Configure sets the options applied to loggers created afterwards.
func Configure(o Options) error {
	if _, err := parseLevel(o.Level); err != nil {
		return err
	}
	defaults = o
	return nil
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
