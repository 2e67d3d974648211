package schema

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Apply folds a stream frame into an assistant message, the way an AI SDK
// client builds the message it displays. Frames which carry no content,
// such as finish and error, leave the message unchanged.
func (m *UIMessage) Apply(frame Frame) {
	switch f := frame.(type) {
	case StartFrame:
		m.ID = f.MessageID
		m.Role = RoleAssistant
	case TextStartFrame:
		m.Parts = append(m.Parts, UIPart{Type: PartTypeText})
	case TextDeltaFrame:
		m.appendText(PartTypeText, f.Delta)
	case ReasoningStartFrame:
		m.Parts = append(m.Parts, UIPart{Type: PartTypeReasoning})
	case ReasoningDeltaFrame:
		m.appendText(PartTypeReasoning, f.Delta)
	case ToolInputStartFrame:
		part := m.toolPart(f.ToolCallID, f.ToolName)
		part.State = StateInputStreaming
	case ToolInputAvailableFrame:
		part := m.toolPart(f.ToolCallID, f.ToolName)
		part.Input = f.Input
		part.State = StateInputAvail
	case ToolOutputAvailableFrame:
		part := m.toolPart(f.ToolCallID, "")
		part.Output = f.Output
		part.State = StateOutputAvail
	case ToolOutputErrorFrame:
		part := m.toolPart(f.ToolCallID, "")
		part.ErrorText = f.ErrorText
		part.State = StateOutputError
	case ToolApprovalRequestFrame:
		part := m.toolPart(f.ToolCallID, "")
		part.Approval = &Approval{ID: f.ApprovalID}
		part.State = StateRequested
	}
}

// ApplyEvent folds a typed event into an assistant message. It is the
// counterpart of Apply for consumers of the in-process projection, which
// see events rather than frames.
func (m *UIMessage) ApplyEvent(event Event) {
	if m.Role == "" {
		m.Role = RoleAssistant
	}
	switch event.Type {
	case EventText:
		m.appendText(PartTypeText, event.Content)
	case EventToolStart:
		part := m.toolPart(event.ToolCallID, event.ToolName)
		part.Input = event.Input
		part.State = StateInputAvail
	case EventToolEnd:
		part := m.toolPart(event.ToolCallID, event.ToolName)
		if event.IsError {
			part.ErrorText, _ = event.Output.(string)
			part.State = StateOutputError
		} else {
			part.Output = event.Output
			part.State = StateOutputAvail
		}
	case EventToolApprovalRequest:
		part := m.toolPart(event.ToolCallID, event.ToolName)
		if part.Input == nil {
			part.Input = event.Input
		}
		part.Approval = &Approval{ID: event.ApprovalID}
		part.State = StateRequested
	}
}

// Respond records the user's answer to an approval request for a tool call.
// It returns false if no approval was requested for the call.
func (m *UIMessage) Respond(toolCallID string, approved bool, reason string) bool {
	for i := range m.Parts {
		part := &m.Parts[i]
		if !part.IsTool() || part.ToolCallID != toolCallID || part.Approval == nil {
			continue
		}
		if part.State != StateRequested {
			return false
		}
		part.Approval.Approved = approved
		part.Approval.Reason = reason
		part.State = StateResponded
		return true
	}
	return false
}

// PendingApprovals returns the tool parts which are waiting for an answer
// from the user.
func (m UIMessage) PendingApprovals() []UIPart {
	var result []UIPart
	for _, part := range m.Parts {
		if part.IsTool() && part.State == StateRequested {
			result = append(result, part)
		}
	}
	return result
}

// Settle marks answered tool calls which received no output as done, so
// they are not sent as decisions again.
func (m *UIMessage) Settle() {
	for i := range m.Parts {
		if part := &m.Parts[i]; part.IsPendingApproval() {
			part.State = StateOutputAvail
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *UIMessage) appendText(typ, delta string) {
	if n := len(m.Parts); n > 0 && m.Parts[n-1].Type == typ {
		m.Parts[n-1].Text += delta
		return
	}
	m.Parts = append(m.Parts, UIPart{Type: typ, Text: delta})
}

// toolPart returns the part for a tool call, adding it when the call has
// not been seen before
func (m *UIMessage) toolPart(id, name string) *UIPart {
	for i := range m.Parts {
		if m.Parts[i].IsTool() && m.Parts[i].ToolCallID == id {
			if name != "" {
				m.Parts[i].ToolName = name
				m.Parts[i].Type = PartTypeToolPfx + name
			}
			return &m.Parts[i]
		}
	}
	typ := PartTypeDynamic
	if name != "" {
		typ = PartTypeToolPfx + name
	}
	m.Parts = append(m.Parts, UIPart{Type: typ, ToolCallID: id, ToolName: name})
	return &m.Parts[len(m.Parts)-1]
}
