package uow

import (
	"context"
	"errors"
	"testing"
)

func TestCoordinatedOperationRunsOpsSequentially(t *testing.T) {
	var order []string
	ops := []Operation{
		func(ctx context.Context, u *UnitOfWork, results []any) (any, error) {
			order = append(order, "first")
			return 1, nil
		},
		func(ctx context.Context, u *UnitOfWork, results []any) (any, error) {
			if len(results) != 1 || results[0] != 1 {
				t.Fatalf("second op saw results %v, want [1]", results)
			}
			order = append(order, "second")
			return 2, nil
		},
	}

	results, err := CoordinatedOperation(context.Background(), nil, ops, nil)
	if err != nil {
		t.Fatalf("CoordinatedOperation returned error: %v", err)
	}
	if len(results) != 2 || results[0] != 1 || results[1] != 2 {
		t.Errorf("results = %v, want [1 2]", results)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("ops ran out of order: %v", order)
	}
}

func TestCoordinatedOperationInvokesRollbackWithPartialResultsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var rolledBackWith []any
	var rolledBackErr error

	ops := []Operation{
		func(ctx context.Context, u *UnitOfWork, results []any) (any, error) {
			return "ok", nil
		},
		func(ctx context.Context, u *UnitOfWork, results []any) (any, error) {
			return nil, boom
		},
		func(ctx context.Context, u *UnitOfWork, results []any) (any, error) {
			t.Fatal("third op should not run after the second failed")
			return nil, nil
		},
	}

	_, err := CoordinatedOperation(context.Background(), nil, ops, func(partial []any, rerr error) {
		rolledBackWith = partial
		rolledBackErr = rerr
	})
	if !errors.Is(err, boom) {
		t.Fatalf("CoordinatedOperation returned %v, want %v", err, boom)
	}
	if len(rolledBackWith) != 1 || rolledBackWith[0] != "ok" {
		t.Errorf("onRollback saw partial results %v, want [ok]", rolledBackWith)
	}
	if !errors.Is(rolledBackErr, boom) {
		t.Errorf("onRollback saw error %v, want %v", rolledBackErr, boom)
	}
}

func TestWorkflowSkipsStepsWithUnmetConditions(t *testing.T) {
	steps := []Step{
		{
			Name: "always",
			Run: func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error) {
				return "ran", nil
			},
		},
		{
			Name:      "conditional",
			Condition: func(results map[string]StepResult) bool { return false },
			Run: func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error) {
				t.Fatal("conditional step should not run when Condition is false")
				return nil, nil
			},
		},
	}

	results, err := Workflow(context.Background(), nil, steps)
	if err != nil {
		t.Fatalf("Workflow returned error: %v", err)
	}
	if results["always"].Data != "ran" {
		t.Errorf("always.Data = %v, want ran", results["always"].Data)
	}
	if !results["conditional"].Skipped {
		t.Error("conditional step should be recorded as skipped")
	}
}

func TestWorkflowRunsRollbackAndAbortsOnFailingStep(t *testing.T) {
	boom := errors.New("boom")
	rolledBack := false

	steps := []Step{
		{
			Name: "first",
			Run: func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error) {
				return "ok", nil
			},
		},
		{
			Name: "second",
			Run: func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error) {
				return nil, boom
			},
			Rollback: func(results map[string]StepResult, err error) {
				rolledBack = true
				if results["first"].Data != "ok" {
					t.Errorf("rollback saw results %v, want first=ok", results)
				}
			},
		},
		{
			Name: "third",
			Run: func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error) {
				t.Fatal("third step should not run after second failed")
				return nil, nil
			},
		},
	}

	_, err := Workflow(context.Background(), nil, steps)
	if !errors.Is(err, boom) {
		t.Fatalf("Workflow returned %v, want %v", err, boom)
	}
	if !rolledBack {
		t.Error("expected the failing step's Rollback to run")
	}
}
