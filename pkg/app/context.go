package app

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool
	NoColor      bool

	// Diagnostics destination, stderr by default
	LogWriter io.Writer
}

// NewContext creates a new application context
func NewContext() *Context {
	return &Context{
		Context:      context.Background(),
		OutputFormat: "table",
		LogWriter:    os.Stderr,
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(format string, args ...interface{}) {
	if !c.Quiet && c.Verbose {
		fmt.Fprintf(c.logWriter(), format+"\n", args...)
	}
}

// Warn outputs a warning unless quiet
func (c *Context) Warn(format string, args ...interface{}) {
	if !c.Quiet {
		fmt.Fprintf(c.logWriter(), "Warning: "+format+"\n", args...)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	if !c.Quiet {
		fmt.Fprintln(c.logWriter(), "Error:", message)
	}
}

func (c *Context) logWriter() io.Writer {
	if c.LogWriter == nil {
		return os.Stderr
	}
	return c.LogWriter
}
