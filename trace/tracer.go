package trace

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents different levels of tracing
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelVerbose
)

// String returns the string representation of Level
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "OFF"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelVerbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// Component represents different components that can be traced
type Component string

const (
	ComponentReader    Component = "READER"
	ComponentLazy      Component = "LAZY"
	ComponentRowGroup  Component = "ROWGROUP"
	ComponentParquet   Component = "PARQUET"
	ComponentSink      Component = "SINK"
	ComponentAggregate Component = "AGGREGATE"
	ComponentCLI       Component = "CLI"
)

var allComponents = []Component{
	ComponentReader, ComponentLazy, ComponentRowGroup,
	ComponentParquet, ComponentSink, ComponentAggregate, ComponentCLI,
}

// Tracer provides leveled, per-component tracing for scan operations
type Tracer struct {
	mutex             sync.RWMutex
	level             Level
	enabledComponents map[Component]bool
}

var globalTracer *Tracer
var tracerOnce sync.Once

// GetTracer returns the global tracer instance
func GetTracer() *Tracer {
	tracerOnce.Do(func() {
		globalTracer = NewTracer()
	})
	return globalTracer
}

// NewTracer creates a new tracer with configuration from environment variables
func NewTracer() *Tracer {
	tracer := &Tracer{
		level:             LevelOff,
		enabledComponents: make(map[Component]bool),
	}
	tracer.configureFromEnv()
	return tracer
}

// configureFromEnv configures the tracer from COLSCAN_TRACE_LEVEL and
// COLSCAN_TRACE_COMPONENTS (comma-separated, or ALL)
func (t *Tracer) configureFromEnv() {
	if levelStr := os.Getenv("COLSCAN_TRACE_LEVEL"); levelStr != "" {
		switch strings.ToUpper(levelStr) {
		case "OFF":
			t.level = LevelOff
		case "ERROR":
			t.level = LevelError
		case "WARN":
			t.level = LevelWarn
		case "INFO":
			t.level = LevelInfo
		case "DEBUG":
			t.level = LevelDebug
		case "VERBOSE":
			t.level = LevelVerbose
		}
	}

	if componentsStr := os.Getenv("COLSCAN_TRACE_COMPONENTS"); componentsStr != "" {
		if strings.ToUpper(componentsStr) == "ALL" {
			for _, comp := range allComponents {
				t.enabledComponents[comp] = true
			}
		} else {
			for _, comp := range strings.Split(componentsStr, ",") {
				t.enabledComponents[Component(strings.TrimSpace(strings.ToUpper(comp)))] = true
			}
		}
	}
}

// SetLevel sets the trace level
func (t *Tracer) SetLevel(level Level) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.level = level
}

// EnableComponent enables tracing for a component
func (t *Tracer) EnableComponent(comp Component) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[comp] = true
}

// IsEnabled reports whether a message at the given level and component
// would be emitted. Hot paths should check this before building context.
func (t *Tracer) IsEnabled(level Level, comp Component) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if level > t.level {
		return false
	}
	if len(t.enabledComponents) == 0 {
		return true
	}
	return t.enabledComponents[comp]
}

func (t *Tracer) emit(level Level, comp Component, message string, context map[string]interface{}) {
	if !t.IsEnabled(level, comp) {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s: %s",
		time.Now().Format("15:04:05.000"), level, comp, message)
	if len(context) > 0 {
		sb.WriteString(" {")
		first := true
		for k, v := range context {
			if !first {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, v)
			first = false
		}
		sb.WriteString("}")
	}
	fmt.Fprintln(os.Stderr, sb.String())
}

// Error logs an error-level trace entry
func (t *Tracer) Error(comp Component, message string, context map[string]interface{}) {
	t.emit(LevelError, comp, message, context)
}

// Warn logs a warn-level trace entry
func (t *Tracer) Warn(comp Component, message string, context map[string]interface{}) {
	t.emit(LevelWarn, comp, message, context)
}

// Info logs an info-level trace entry
func (t *Tracer) Info(comp Component, message string, context map[string]interface{}) {
	t.emit(LevelInfo, comp, message, context)
}

// Debug logs a debug-level trace entry
func (t *Tracer) Debug(comp Component, message string, context map[string]interface{}) {
	t.emit(LevelDebug, comp, message, context)
}

// Verbose logs a verbose-level trace entry
func (t *Tracer) Verbose(comp Component, message string, context map[string]interface{}) {
	t.emit(LevelVerbose, comp, message, context)
}

// Context builds a context map from alternating key/value pairs
func Context(pairs ...interface{}) map[string]interface{} {
	ctx := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			ctx[key] = pairs[i+1]
		}
	}
	return ctx
}
