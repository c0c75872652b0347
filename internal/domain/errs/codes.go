package errs

var (
	// Not found
	ErrWorkflowNotFound  = New(KindNotFound, "WORKFLOW_NOT_FOUND", "workflow not found")
	ErrExecutionNotFound = New(KindNotFound, "EXECUTION_NOT_FOUND", "workflow execution not found")
	ErrUserNotFound      = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrBotNotFound       = New(KindNotFound, "BOT_NOT_FOUND", "bot not found")

	// Domain rules
	ErrWorkflowAlreadyActive      = New(KindDomainRule, "WORKFLOW_ALREADY_ACTIVE", "workflow is already active")
	ErrWorkflowCannotBeActivated  = New(KindDomainRule, "WORKFLOW_CANNOT_BE_ACTIVATED", "workflow cannot be activated")
	ErrWorkflowNotActive          = New(KindDomainRule, "WORKFLOW_NOT_ACTIVE", "workflow is not active")
	ErrInvalidExecutionTransition = New(KindDomainRule, "INVALID_EXECUTION_TRANSITION", "invalid execution transition")
	ErrWorkflowDeletionBlocked    = New(KindDomainRule, "WORKFLOW_DELETION_BLOCKED", "workflow cannot be deleted")

	// Validation
	ErrInvalidWorkflowData = New(KindValidation, "INVALID_WORKFLOW_DATA", "invalid workflow data")
	ErrInvalidCommand      = New(KindValidation, "INVALID_COMMAND", "invalid command")

	// Conflicts
	ErrWorkflowAlreadyExists = New(KindConflict, "WORKFLOW_ALREADY_EXISTS", "workflow already exists")
	ErrExecutionConflict     = New(KindConflict, "EXECUTION_CONFLICT", "execution status conflict")
	ErrUserAlreadyExists     = New(KindConflict, "USER_ALREADY_EXISTS", "user already exists")

	// Engine
	ErrDeployment     = New(KindEngine, "DEPLOYMENT_FAILED", "failed to deploy workflow")
	ErrExecutionStart = New(KindEngine, "EXECUTION_START_FAILED", "failed to start workflow execution")
	ErrEngine         = New(KindEngine, "ENGINE_FAILURE", "process engine failure")

	// Security
	ErrEncryption = New(KindSecurity, "ENCRYPTION_FAILED", "failed to encrypt secret")
	ErrDecryption = New(KindSecurity, "DECRYPTION_FAILED", "failed to decrypt secret")
)
