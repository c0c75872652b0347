package service

import "fmt"

const (
	cacheName = "workflows"

	keyAllWorkflows            = "workflows:all"
	keyAllWorkflowsWithCreator = "workflows:all-with-creator"
	keyAllWorkflowsWithExecs   = "workflows:all-with-executions"
)

func workflowKey(id int64) string {
	return fmt.Sprintf("workflow:%d", id)
}

func workflowsByUserKey(userID int64) string {
	return fmt.Sprintf("workflows:by-user:%d", userID)
}

// listKeys are the fixed list entries made stale by any single-workflow mutation
var listKeys = []string{
	keyAllWorkflows,
	keyAllWorkflowsWithCreator,
	keyAllWorkflowsWithExecs,
}

// evictionKeys is the key set an id-scoped mutation must remove
func evictionKeys(workflowID, creatorID int64) []string {
	keys := make([]string, 0, len(listKeys)+2)
	keys = append(keys, workflowKey(workflowID), workflowsByUserKey(creatorID))
	return append(keys, listKeys...)
}

// executionViewKeys are the entries whose execution statistics change when an execution starts or changes status
func executionViewKeys(workflowID int64) []string {
	return []string{workflowKey(workflowID), keyAllWorkflowsWithExecs}
}
