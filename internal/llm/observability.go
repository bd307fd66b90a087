package llm

import (
	"go.uber.org/zap"
)

// CallEvent records metadata about one Generate call.
type CallEvent struct {
	Model     string
	LatencyMs int64
	Rounds    int
	ToolCalls int
	Usage     Usage
	Success   bool
	ErrorCode string
}

// Observer receives events about model calls.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver logs call events with zap.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an Observer that logs to logger.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(e CallEvent) {
	fields := []zap.Field{
		zap.String("model", e.Model),
		zap.Int64("latency_ms", e.LatencyMs),
		zap.Int("rounds", e.Rounds),
		zap.Int("tool_calls", e.ToolCalls),
		zap.Int("total_tokens", e.Usage.TotalTokens),
	}
	if e.Success {
		o.logger.Info("llm call", fields...)
		return
	}
	o.logger.Warn("llm call failed", append(fields, zap.String("error_code", e.ErrorCode))...)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
