package event

// Type identifies the type of domain event
type Type string

const (
	TypeWorkflowCreated        Type = "workflow.created"
	TypeWorkflowActivated      Type = "workflow.activated"
	TypeWorkflowDeactivated    Type = "workflow.deactivated"
	TypeWorkflowArchived       Type = "workflow.archived"
	TypeWorkflowDeleted        Type = "workflow.deleted"
	TypeExecutionCreated       Type = "execution.created"
	TypeExecutionStatusChanged Type = "execution.status_changed"
	TypeBotMessageReceived     Type = "bot.message_received"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkflowCreated,
		TypeWorkflowActivated,
		TypeWorkflowDeactivated,
		TypeWorkflowArchived,
		TypeWorkflowDeleted,
		TypeExecutionCreated,
		TypeExecutionStatusChanged,
		TypeBotMessageReceived:
		return true
	default:
		return false
	}
}

// Synchronous reports whether subscribers of this type run in the publisher's goroutine.
// Execution bookkeeping is delivered inline; everything else fans out asynchronously.
func (t Type) Synchronous() bool {
	return t == TypeExecutionCreated
}

// Payload keys
const (
	KeyWorkflowID        = "workflow_id"
	KeyWorkflowName      = "workflow_name"
	KeyExecutionID       = "execution_id"
	KeyProcessInstanceID = "process_instance_id"
	KeyStatus            = "status"
	KeyPreviousStatus    = "previous_status"
	KeyErrorMessage      = "error_message"
	KeyDurationMillis    = "duration_ms"
	KeyBotID             = "bot_id"
	KeyChatID            = "chat_id"
	KeyUserID            = "user_id"
	KeyText              = "text"
	KeyExternalID        = "external_id"
)
