package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	statex "github.com/tanpawarit/storage-chat-agent/agent/state"
)

type GraphInput struct {
	Text    string
	Epoch   uint64
	Session *statex.Session
}

type GraphOutput struct {
	Turn contractx.Turn
	Err  error
}

// GraphState flows through every node of a turn. Once Err is set the
// remaining nodes pass the state through untouched and finalize_reply
// reports it.
type GraphState struct {
	Text    string
	Epoch   uint64
	Now     time.Time
	Session *statex.Session

	Credentials contractx.Credentials

	Completion  contractx.Completion
	Completions int
	Continue    bool

	Display []contractx.DisplayMessage
	Reply   string
	Kind    contractx.ReplyKind
	Err     error
}

func (s *GraphState) Failed() bool {
	return s.Err != nil
}

// fail records err and the user-facing text for it.
func (s *GraphState) fail(err error, reply string) {
	s.Err = err
	s.Kind = contractx.ReplyError
	s.Reply = reply
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.Session == nil {
		return nil, fmt.Errorf("%w: session is nil", contractx.ErrValidation)
	}

	st := &GraphState{
		Text:    strings.TrimSpace(in.Text),
		Epoch:   in.Epoch,
		Now:     nowFn().UTC(),
		Session: in.Session,
	}
	if st.Text == "" {
		st.fail(contractx.ErrInvalidMessage, "")
	}
	return st, nil
}
