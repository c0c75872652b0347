// Package usecase holds the transactional entry points that mutate workflows and executions.
package usecase

import "github.com/ukoquique-proves/JavaFlow/internal/application/port"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Dependencies groups the collaborators shared by all use cases
type Dependencies struct {
	Workflows  port.WorkflowRepository
	Executions port.ExecutionRepository
	Users      port.UserDirectory
	Engine     port.ProcessEngine
	TxManager  port.TransactionManager
	Publisher  port.EventPublisher
	Logger     Logger
}
