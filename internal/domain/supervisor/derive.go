package supervisor

import "github.com/your-org/forms-backend/internal/domain/status"

// Input is everything the supervisor derivation looks at
type Input struct {
	Dimensions       []CheckStatus
	VisualInspection CheckStatus
	MaterialCheck    CheckStatus
}

var (
	isPass    = status.Is(CheckPass)
	isFail    = status.Is(CheckFail)
	isPending = status.Is(CheckPending)
)

// Rules is the precedence table for supervisor checks. It has no catch-all
// rule, so when nothing matches the previous overall status is kept.
var Rules = status.Table[Input, OverallStatus]{
	{
		Name:   "any-dimension-failed",
		Match:  func(in Input) bool { return status.Any(in.Dimensions, isFail) },
		Result: OverallFailed,
	},
	{
		Name: "all-passed",
		Match: func(in Input) bool {
			return status.All(in.Dimensions, isPass) && in.VisualInspection == CheckPass && in.MaterialCheck == CheckPass
		},
		Result: OverallPassed,
	},
	{
		Name:   "any-dimension-pending",
		Match:  func(in Input) bool { return status.Any(in.Dimensions, isPending) },
		Result: OverallInProgress,
	},
}

// DeriveOverallStatus applies Rules, returning prior when no rule matches
func DeriveOverallStatus(in Input, prior OverallStatus) OverallStatus {
	return Rules.Derive(in, prior)
}
