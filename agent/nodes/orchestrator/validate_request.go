package orchestratornode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/auth"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("query is empty")
	ErrNilState       = errors.New("graph state is nil")
)

type GraphInput struct {
	RequestID string
	Username  string
	Text      string
}

type GraphOutput struct {
	Response contract.Response
	Tools    []string
	LoggedIn bool
}

// GraphState travels through every node of one request. Failure is terminal:
// once set, the remaining nodes are skipped and Respond reports it.
type GraphState struct {
	RequestID string
	Username  string
	Text      string

	ToolRequests []contract.ToolRequest
	Session      auth.SessionStatus
	LoggedIn     bool
	Results      []contract.ToolResult

	Failure *contract.ErrorResult
}

// Failed reports whether the request already reached a terminal error.
func (s *GraphState) Failed() bool {
	return s != nil && s.Failure != nil
}

func (s *GraphState) fail(err error) *GraphState {
	res := contract.ErrorResultFrom(err)
	s.Failure = &res
	return s
}

func (s *GraphState) failWith(res contract.ErrorResult) *GraphState {
	s.Failure = &res
	return s
}

func ValidateRequest(in GraphInput) (*GraphState, error) {
	st := &GraphState{
		RequestID: in.RequestID,
		Username:  strings.TrimSpace(in.Username),
		Text:      strings.TrimSpace(in.Text),
	}
	if st.Text == "" {
		return st.fail(fmt.Errorf("%w: %w", contract.ErrValidation, ErrInvalidMessage)), nil
	}
	return st, nil
}
