// Package nlog provides the process-wide leveled logger used across mclone.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package nlog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Verbosity gates the FastV-style debug logging used by modules that log
// a lot on the hot path (byte-stream transfers, per-item diff decisions).
var verbosity int32

func SetVerbosity(v int) { atomic.StoreInt32(&verbosity, int32(v)) }

// FastV reports whether logging at level `v` for `smodule` is enabled.
// mclone does not (yet) have aistore's per-module verbosity table, so
// `smodule` is accepted for call-site parity but only the global level
// is consulted.
func FastV(v int, _smodule string) bool {
	return atomic.LoadInt32(&verbosity) >= int32(v)
}

var std = log.New(os.Stderr, "", log.Ldate|log.Ltime)

func Infof(format string, args ...any)    { std.Output(2, "I "+fmt.Sprintf(format, args...)) }
func Infoln(args ...any)                  { std.Output(2, "I "+fmt.Sprintln(args...)) }
func Warningf(format string, args ...any) { std.Output(2, "W "+fmt.Sprintf(format, args...)) }
func Warningln(args ...any)               { std.Output(2, "W "+fmt.Sprintln(args...)) }
func Errorf(format string, args ...any)   { std.Output(2, "E "+fmt.Sprintf(format, args...)) }
func Errorln(args ...any)                 { std.Output(2, "E "+fmt.Sprintln(args...)) }

// Logger is a lightweight handle carrying a name prefix; the mission
// passes one down to every adapter/pipe so log lines can be attributed
// without threading a context value through every call.
type Logger struct {
	name string
}

func New(name string) *Logger { return &Logger{name: name} }

func (l *Logger) prefix(s string) string {
	if l.name == "" {
		return s
	}
	return "[" + l.name + "] " + s
}

func (l *Logger) Infof(format string, args ...any) {
	std.Output(2, "I "+l.prefix(fmt.Sprintf(format, args...)))
}

func (l *Logger) Infoln(args ...any) {
	std.Output(2, "I "+l.prefix(fmt.Sprintln(args...)))
}

func (l *Logger) Warningf(format string, args ...any) {
	std.Output(2, "W "+l.prefix(fmt.Sprintf(format, args...)))
}

func (l *Logger) Warningln(args ...any) {
	std.Output(2, "W "+l.prefix(fmt.Sprintln(args...)))
}

func (l *Logger) Errorf(format string, args ...any) {
	std.Output(2, "E "+l.prefix(fmt.Sprintf(format, args...)))
}

func (l *Logger) Errorln(args ...any) {
	std.Output(2, "E "+l.prefix(fmt.Sprintln(args...)))
}

func (l *Logger) FastV(v int, smodule string) bool { return FastV(v, smodule) }
