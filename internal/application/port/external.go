package port

import (
	"context"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// ProcessEngine is the external engine that deploys and runs process definitions
type ProcessEngine interface {
	Deploy(ctx context.Context, name, resourceName, definition string) (deploymentID string, err error)
	StartInstance(ctx context.Context, processKey string, variables map[string]interface{}) (instanceID string, err error)
	DeleteInstance(ctx context.Context, instanceID, reason string) error
}

// LifecycleEvent is an engine-side notification about a process instance
type LifecycleEvent string

const (
	LifecycleStart LifecycleEvent = "start"
	LifecycleEnd   LifecycleEvent = "end"
	LifecycleError LifecycleEvent = "error"
)

// ExecutionStatus maps the lifecycle event onto an execution status
func (l LifecycleEvent) ExecutionStatus() (entity.ExecutionStatus, bool) {
	switch l {
	case LifecycleStart:
		return entity.ExecutionStatusRunning, true
	case LifecycleEnd:
		return entity.ExecutionStatusCompleted, true
	case LifecycleError:
		return entity.ExecutionStatusFailed, true
	default:
		return "", false
	}
}

// LifecycleListener receives engine lifecycle callbacks
type LifecycleListener func(ctx context.Context, instanceID string, lifecycle LifecycleEvent, errorMessage string)

// UserDirectory resolves user identities. A missing user fails with errs.ErrUserNotFound.
type UserDirectory interface {
	Lookup(ctx context.Context, id int64) (*entity.User, error)
}

// SecretCipher encrypts credentials at rest. Failures are errs.ErrEncryption / errs.ErrDecryption.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// BotSender delivers outbound chat messages for one platform
type BotSender interface {
	Type() entity.BotType
	SendMessage(ctx context.Context, bot *entity.BotConfiguration, chatID, text string) error
}

// EventPublisher hands drained aggregate events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, events ...*event.Event)
}
