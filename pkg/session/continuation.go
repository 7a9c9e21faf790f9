package session

import "github.com/aretw0/whiteboard/pkg/domain"

// ShouldContinue reports whether the conversation must be resubmitted to the
// model without waiting for the user. That is the case when the last message
// is from the assistant, completed without error, contains at least one tool
// call, and every tool call is terminal.
func ShouldContinue(t domain.Transcript) bool {
	last := t.Last()
	if last == nil || last.Role != domain.RoleAssistant || last.Error != "" {
		return false
	}
	calls := last.ToolCalls()
	if len(calls) == 0 {
		return false
	}
	for _, call := range calls {
		if !call.State.Terminal() {
			return false
		}
	}
	return true
}
