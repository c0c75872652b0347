package porttest

import (
	"sync"
	"time"
)

// Metrics counts every measurement by label
type Metrics struct {
	mu sync.Mutex

	Activations map[string]int
	Executions  map[string]int
	Durations   map[string][]time.Duration
	BotMessages map[string]int
	BotCommands map[string]int
	CacheHits   int
	CacheMisses int
	LongRunning int
}

func NewMetrics() *Metrics {
	return &Metrics{
		Activations: make(map[string]int),
		Executions:  make(map[string]int),
		Durations:   make(map[string][]time.Duration),
		BotMessages: make(map[string]int),
		BotCommands: make(map[string]int),
	}
}

func (m *Metrics) RecordWorkflowActivation(workflow string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activations[workflow]++
}

// RecordExecution counts under "<workflow>/<status>"
func (m *Metrics) RecordExecution(workflow, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executions[workflow+"/"+status]++
}

func (m *Metrics) RecordExecutionDuration(workflow string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Durations[workflow] = append(m.Durations[workflow], d)
}

// RecordBotMessage counts under "<botType>/<direction>"
func (m *Metrics) RecordBotMessage(botType, direction string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BotMessages[botType+"/"+direction]++
}

// RecordBotCommand counts under "<botType>/<command>"
func (m *Metrics) RecordBotCommand(botType, command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BotCommands[botType+"/"+command]++
}

func (m *Metrics) RecordCacheHit(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) RecordCacheMiss(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *Metrics) SetLongRunningExecutions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LongRunning = n
}

// Snapshot returns hit and miss counts
func (m *Metrics) Snapshot() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CacheHits, m.CacheMisses
}
