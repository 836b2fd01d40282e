package orchestratornode

import (
	"context"
	"errors"
	"testing"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
)

type stubPlanner struct {
	reqs []contract.ToolRequest
	err  error
}

func (s stubPlanner) Plan(context.Context, contract.PlannerRequest) ([]contract.ToolRequest, error) {
	return s.reqs, s.err
}

func TestValidateRequestRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	st, err := ValidateRequest(GraphInput{RequestID: "r1", Username: "alice", Text: "   "})
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if !st.Failed() || st.Failure.Code != contract.CodeInvalidArguments {
		t.Fatalf("expected invalid-arguments failure, got %+v", st.Failure)
	}
}

func TestValidateRequestTrims(t *testing.T) {
	t.Parallel()

	st, err := ValidateRequest(GraphInput{Username: " alice ", Text: " show my sales "})
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.Username != "alice" || st.Text != "show my sales" {
		t.Fatalf("ValidateRequest() = %+v", st)
	}
}

func TestPlanToolsSingleToolPolicy(t *testing.T) {
	t.Parallel()

	planner := stubPlanner{reqs: []contract.ToolRequest{
		{Tool: contract.ToolFetchWeather, Args: map[string]any{"city": "Karachi"}},
		{Tool: contract.ToolFetchSaleOrdersByUser},
	}}

	st, err := PlanTools(context.Background(), &GraphState{Text: "x"}, planner, nil, false)
	if err != nil {
		t.Fatalf("PlanTools() error = %v", err)
	}
	if len(st.ToolRequests) != 1 || st.ToolRequests[0].Tool != contract.ToolFetchWeather {
		t.Fatalf("ToolRequests = %+v", st.ToolRequests)
	}

	st, err = PlanTools(context.Background(), &GraphState{Text: "x"}, planner, nil, true)
	if err != nil {
		t.Fatalf("PlanTools() error = %v", err)
	}
	if len(st.ToolRequests) != 2 {
		t.Fatalf("ToolRequests = %+v", st.ToolRequests)
	}
}

func TestPlanToolsFailureIsTerminal(t *testing.T) {
	t.Parallel()

	st, err := PlanTools(context.Background(), &GraphState{Text: "x"}, stubPlanner{err: contract.ErrToolSelection}, nil, true)
	if err != nil {
		t.Fatalf("PlanTools() error = %v", err)
	}
	if !st.Failed() || st.Failure.Code != contract.CodeToolSelection {
		t.Fatalf("Failure = %+v", st.Failure)
	}

	st, _ = PlanTools(context.Background(), &GraphState{Text: "x"}, stubPlanner{}, nil, true)
	if !st.Failed() || st.Failure.Code != contract.CodeToolSelection {
		t.Fatalf("empty plan Failure = %+v", st.Failure)
	}
}

func TestCheckCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	creds := state.NewMemoryCredentialStore()
	if err := creds.Set(ctx, state.Credentials{Database: "postgres", Username: "alice", Password: "x"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	st, _ := CheckCredentials(ctx, &GraphState{Username: "alice"}, creds)
	if st.Failed() {
		t.Fatalf("unexpected failure %+v", st.Failure)
	}

	for _, username := range []string{"", "bob"} {
		st, _ = CheckCredentials(ctx, &GraphState{Username: username}, creds)
		if !st.Failed() || st.Failure.Code != contract.CodeMissingCredentials {
			t.Fatalf("username %q Failure = %+v", username, st.Failure)
		}
		if st.Failure.Message != MissingCredentialsMessage {
			t.Fatalf("Message = %q", st.Failure.Message)
		}
	}
}

func TestRespond(t *testing.T) {
	t.Parallel()

	out, err := Respond(&GraphState{
		RequestID:    "r1",
		LoggedIn:     true,
		ToolRequests: []contract.ToolRequest{{Tool: contract.ToolFetchWeather}, {Tool: contract.ToolFetchSaleOrdersByUser}},
		Results: []contract.ToolResult{
			contract.WeatherResult{Location: "Karachi", Condition: "Sunny", TemperatureC: 31},
			contract.ErrorResult{Code: contract.CodeNotFound, Message: "No sale orders found."},
		},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if out.Response.Status != contract.StatusResponded || len(out.Response.Results) != 2 {
		t.Fatalf("Respond() = %+v", out)
	}
	if !out.LoggedIn {
		t.Fatal("LoggedIn not carried to the output")
	}
	if len(out.Tools) != 2 || out.Tools[1] != contract.ToolFetchSaleOrdersByUser {
		t.Fatalf("Tools = %v", out.Tools)
	}
	want := "Weather in Karachi: Sunny, Temperature: 31.0°C\nError: No sale orders found. (Code: 101)"
	if out.Response.Message != want {
		t.Fatalf("Message = %q, want %q", out.Response.Message, want)
	}

	failed := &GraphState{RequestID: "r2"}
	failed.fail(errors.New("boom"))
	out, _ = Respond(failed)
	if out.Response.Status != contract.StatusFailed || out.Response.Error == nil || out.Response.Error.Code != contract.CodeInternal {
		t.Fatalf("Respond(failed) = %+v", out)
	}
}
