// Package resume extracts the approval decisions a client sends back after a
// turn was interrupted, and builds the engine request for the next turn.
package resume

import (
	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultRejectReason = "Tool execution was rejected by user"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Extract returns the approval state of the conversation, or nil when no
// tool part has a pending approval response. Decisions are returned in
// message and part order, one per pending part. The message id continues
// the interrupted assistant message; when empty, the id of the first message
// with a pending part is used.
func Extract(messages []schema.UIMessage, messageID string) *schema.ResumeContext {
	var resume schema.ResumeContext
	for _, message := range messages {
		for _, part := range message.Parts {
			if !part.IsPendingApproval() {
				continue
			}
			if messageID == "" {
				messageID = message.ID
			}
			if part.Approval.Approved {
				resume.Decisions = append(resume.Decisions, schema.DecisionApprove)
				resume.Approved = append(resume.Approved, part.ToolCallID)
			} else {
				reason := part.Approval.Reason
				if reason == "" {
					reason = DefaultRejectReason
				}
				resume.Decisions = append(resume.Decisions, schema.DecisionReject)
				resume.Rejected = append(resume.Rejected, schema.RejectedToolCall{
					ToolCallID: part.ToolCallID,
					Reason:     reason,
				})
			}
		}
	}
	if len(resume.Decisions) == 0 {
		return nil
	}
	resume.MessageID = messageID
	return &resume
}

// Request returns the engine request for a chat request, and the approval
// state when the chat request resumes an interrupted turn.
func Request(req schema.ChatRequest) (schema.TurnRequest, *schema.ResumeContext) {
	turn := schema.TurnRequest{
		ThreadID: req.ID,
		Messages: req.Messages,
	}
	resume := Extract(req.Messages, req.MessageID)
	if resume != nil {
		turn.Decisions = resume.Decisions
	}
	return turn, resume
}
