// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	typeWidth   = 15 // Width for entry kind
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation is one rendered line of a batch
type FileOperation struct {
	Path      string // Display name (file, or archive!member)
	Type      string // route / stream
	Status    string // Outcome text
	Target    string // Final path or reason
	IsNew     bool   // Written to its destination
	IsRotated bool   // Promoted into a stream
	IsSkipped bool   // Nothing written, not an error
	IsFailed  bool   // Error
}

// 📦 BatchOperation describes the batch being processed
type BatchOperation struct {
	Input  string // Input directory
	Config string // Config file
	Filter string // Category filter
	DryRun bool
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentOp  *BatchOperation
	operations []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🏭 NewWithZerolog creates a logger that mirrors lines into an existing zerolog logger
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{zlog: zlog, console: console}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsRotated:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var typeColor color.Attribute
	switch op.Type {
	case "stream":
		typeColor = color.FgMagenta
	default:
		typeColor = color.FgBlue
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(typeColor).Sprint(fmt.Sprintf("%-*s", typeWidth, op.Type)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
	if op.Target != "" {
		line += " " + color.New(color.Faint).Sprint(op.Target)
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	evt := l.zlog.Debug()
	if op.IsFailed {
		evt = l.zlog.Warn()
	}
	evt.
		Str("file", op.Path).
		Str("type", op.Type).
		Str("status", op.Status).
		Str("target", op.Target).
		Msg("file operation")
}

// 📝 StartBatch prints the batch header
func (l *Logger) StartBatch(ctx context.Context, op BatchOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	mode := "routing"
	if op.DryRun {
		mode = "planning"
	}
	fmt.Fprintf(l.console, "[%s %s]\n", mode, color.New(color.FgCyan).Sprint(op.Input))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Config),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Filter))

	l.zlog.Info().
		Str("input", op.Input).
		Str("config", op.Config).
		Str("filter", op.Filter).
		Bool("dry_run", op.DryRun).
		Msg("starting batch")
}

// 📝 EndBatch closes the current batch and returns how many lines it logged
func (l *Logger) EndBatch(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return 0
	}

	n := len(l.operations)
	l.zlog.Info().
		Str("input", l.currentOp.Input).
		Int("files", n).
		Msg("batch complete")

	l.currentOp = nil
	l.operations = nil
	return n
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	appText := color.New(color.Bold, color.FgCyan).Sprint("csvroute")
	fmt.Fprintf(l.console, "\n%s %s\n\n", appText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// say prints one symbol-prefixed message and mirrors it into zerolog
func (l *Logger) say(symbol string, attr color.Attribute, evt *zerolog.Event, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", symbol, color.New(attr).Sprint(msg))
	evt.Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) { l.say("✅", color.FgGreen, l.zlog.Info(), msg) }

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) { l.say("⚠️ ", color.FgYellow, l.zlog.Warn(), msg) }

// 📝 Error logs an error message
func (l *Logger) Error(msg string) { l.say("❌", color.FgRed, l.zlog.Error(), msg) }

// 📝 Info logs an info message
func (l *Logger) Info(msg string) { l.say("ℹ️ ", color.FgCyan, l.zlog.Info(), msg) }

// Successf, Warningf and Infof format then log
func (l *Logger) Successf(format string, args ...any) { l.Success(fmt.Sprintf(format, args...)) }

func (l *Logger) Warningf(format string, args ...any) { l.Warning(fmt.Sprintf(format, args...)) }

func (l *Logger) Infof(format string, args ...any) { l.Info(fmt.Sprintf(format, args...)) }
