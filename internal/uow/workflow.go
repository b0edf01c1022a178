package uow

import "context"

// Operation is one step of a CoordinatedOperation: given the results
// accumulated by the operations that ran before it, it does its work
// against u and returns its own result or an error.
//
// Grounded on shared/transaction/coordinator.py's
// TransactionCoordinator.execute_coordinated_operation, which runs a list
// of callables against one session, collecting each result before moving
// on to the next.
type Operation func(ctx context.Context, u *UnitOfWork, results []any) (any, error)

// CoordinatedOperation runs ops in order within u, the single UnitOfWork
// shared by all of them. If an op fails, onRollback (when non-nil) is
// handed the results accumulated before the failure and the error itself,
// and the error is returned to the caller so the enclosing Run rolls the
// transaction back. A nil error return commits everything ops did as one
// unit, matching the Python original's "commit once, at the end".
func CoordinatedOperation(ctx context.Context, u *UnitOfWork, ops []Operation, onRollback func(partial []any, err error)) ([]any, error) {
	results := make([]any, 0, len(ops))
	for _, op := range ops {
		res, err := op(ctx, u, results)
		if err != nil {
			if onRollback != nil {
				onRollback(results, err)
			}
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Step is one named unit of a Workflow, mirroring a workflow_steps entry
// in execute_complex_workflow: an optional Condition gates whether the
// step runs at all, and an optional Rollback runs when Run fails.
type Step struct {
	Name      string
	Condition func(results map[string]StepResult) bool
	Run       func(ctx context.Context, u *UnitOfWork, results map[string]StepResult) (any, error)
	Rollback  func(results map[string]StepResult, err error)
}

// StepResult records the terminal state of one Step within a Workflow.
type StepResult struct {
	Skipped bool
	Data    any
}

// Workflow runs steps in order against u. A step whose Condition returns
// false is recorded Skipped and does not run. A step whose Run fails
// invokes its Rollback (if set) with the results accumulated so far and
// the failing error, then Workflow stops running further steps and
// returns that error — propagating it to the enclosing Run so the whole
// transaction rolls back, just as a failed step in
// execute_complex_workflow aborts the remaining steps.
func Workflow(ctx context.Context, u *UnitOfWork, steps []Step) (map[string]StepResult, error) {
	results := make(map[string]StepResult, len(steps))
	for _, step := range steps {
		if step.Condition != nil && !step.Condition(results) {
			results[step.Name] = StepResult{Skipped: true}
			continue
		}

		data, err := step.Run(ctx, u, results)
		if err != nil {
			if step.Rollback != nil {
				step.Rollback(results, err)
			}
			return results, err
		}
		results[step.Name] = StepResult{Data: data}
	}
	return results, nil
}
