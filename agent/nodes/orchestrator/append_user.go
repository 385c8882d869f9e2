package orchestratornode

import (
	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

func AppendUser(in *GraphState) (*GraphState, error) {
	if in.Failed() {
		return in, nil
	}

	entry := contractx.Message{Role: contractx.RoleUser, Content: in.Text}
	if err := in.Session.Append(in.Epoch, entry); err != nil {
		in.fail(err, "")
		return in, nil
	}
	in.display(contractx.DisplayMessage{Role: contractx.RoleUser, Content: in.Text})
	return in, nil
}

// display records msg for this turn and in the session's display list.
// A cleared conversation drops it silently; the next transcript append
// reports the clear.
func (s *GraphState) display(msg contractx.DisplayMessage) {
	if err := s.Session.AppendDisplay(s.Epoch, msg); err != nil {
		return
	}
	s.Display = append(s.Display, msg)
}
