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
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent   = 2  // spaces to indent file entries
	nameWidth    = 35 // Base width for file name
	formatWidth  = 6  // Width for format
	detailIndent = 2  // spaces to indent detail lines
)

// 🎯 FileResult is one written or failed output file
type FileResult struct {
	Path   string // Output path
	Format string // Format extension without dot
	Detail string // Size, point count or failure reason
	Failed bool
}

// 🎯 Logger writes user-facing lines to a console and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	return New(io.Discard, zerolog.Nop())
}

// Console is the writer user-facing lines go to.
func (l *Logger) Console() io.Writer {
	return l.console
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, a discarding logger if absent
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Discard()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func (l *Logger) println(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, s)
}

// 📝 formatFileResult formats an output file line for display
func formatFileResult(r FileResult) string {
	symbol := color.New(color.FgGreen).Sprint("✓")
	if r.Failed {
		symbol = color.New(color.FgRed).Sprint("✗")
	}
	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		symbol,
		fmt.Sprintf("%-*s", nameWidth, r.Path),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", formatWidth, r.Format)),
		r.Detail)
}

// 📝 FileResult logs one output file
func (l *Logger) FileResult(r FileResult) {
	l.println(formatFileResult(r))

	ev := l.zlog.Info()
	if r.Failed {
		ev = l.zlog.Error()
	}
	ev.Str("file", r.Path).
		Str("format", r.Format).
		Str("detail", r.Detail).
		Bool("failed", r.Failed).
		Msg("output file")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	name := color.New(color.Bold, color.FgCyan).Sprint("cloudforge")
	l.println(fmt.Sprintf("\n%s %s\n", name, color.New(color.Faint).Sprint("• "+msg)))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.println(fmt.Sprintf("✓ %s", color.New(color.FgGreen).Sprint(msg)))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.println(fmt.Sprintf("⚠ %s", color.New(color.FgYellow).Sprint(msg)))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.println(fmt.Sprintf("✗ %s", color.New(color.FgRed).Sprint(msg)))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.println(msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Detail logs an indented detail line, only to the console
func (l *Logger) Detail(msg string) {
	l.println(strings.Repeat(" ", detailIndent) + msg)
	l.zlog.Debug().Msg(strings.TrimSpace(msg))
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.println("")
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}

// 📝 Detailf logs a formatted detail line
func (l *Logger) Detailf(format string, args ...any) {
	l.Detail(fmt.Sprintf(format, args...))
}
