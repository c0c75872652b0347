package port

import "time"

// MetricsRecorder is the sink fed by event subscribers and the bot service
type MetricsRecorder interface {
	RecordWorkflowActivation(workflow string)
	RecordExecution(workflow string, status string)
	RecordExecutionDuration(workflow string, d time.Duration)
	RecordBotMessage(botType string, direction string)
	RecordBotCommand(botType string, command string)
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	SetLongRunningExecutions(n int)
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordWorkflowActivation(string)               {}
func (NopMetrics) RecordExecution(string, string)                {}
func (NopMetrics) RecordExecutionDuration(string, time.Duration) {}
func (NopMetrics) RecordBotMessage(string, string)               {}
func (NopMetrics) RecordBotCommand(string, string)               {}
func (NopMetrics) RecordCacheHit(string)                         {}
func (NopMetrics) RecordCacheMiss(string)                        {}
func (NopMetrics) SetLongRunningExecutions(int)                  {}
