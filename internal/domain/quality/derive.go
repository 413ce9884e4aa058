package quality

import "github.com/your-org/forms-backend/internal/domain/status"

var (
	isPassed = status.Is(StatusPassed)
	isFailed = status.Is(StatusFailed)
	settled  = status.Is(StatusPassed, StatusFailed)
	working  = status.Is(StatusPartial, StatusInProgress)
)

// Rules is the precedence table for quality checks.
var Rules = status.Table[[]Status, Status]{
	{
		Name:   "all-passed",
		Match:  func(items []Status) bool { return status.All(items, isPassed) },
		Result: StatusPassed,
	},
	{
		Name:   "all-failed",
		Match:  func(items []Status) bool { return status.All(items, isFailed) },
		Result: StatusFailed,
	},
	// every item is settled and at least one of them failed
	{
		Name: "settled-with-failure",
		Match: func(items []Status) bool {
			return status.All(items, settled) && status.Any(items, isFailed)
		},
		Result: StatusFailed,
	},
	{
		Name:   "any-partial-or-in-progress",
		Match:  func(items []Status) bool { return status.Any(items, working) },
		Result: StatusPartial,
	},
	{
		Name:   "otherwise",
		Match:  func([]Status) bool { return true },
		Result: StatusInProgress,
	},
}

// DeriveOverallStatus folds item statuses into the check's overall status.
// An empty list leaves prior unchanged.
func DeriveOverallStatus(items []Status, prior Status) Status {
	if len(items) == 0 {
		return prior
	}
	return Rules.Derive(items, prior)
}
