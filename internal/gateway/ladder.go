package gateway

import (
	"context"
	"net/http"
)

// Attempt is one (verb, route) step of a fallback ladder. When decides, from
// the outcome of the previous executed attempt, whether this step runs. The
// first attempt always runs.
type Attempt struct {
	Method string
	Path   string
	When   func(prev Outcome) bool
}

// Outcome is the result of executing one attempt.
type Outcome struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Status >= 200 && o.Status < 300
}

// ReturnToolLadder is the ordered fallback used to return a tool:
// PATCH on the primary route, POST on the same route when the verb was not
// accepted, then POST on the alias route for any remaining failure.
func ReturnToolLadder(routes Routes) []Attempt {
	return []Attempt{
		{Method: http.MethodPatch, Path: routes.ReturnTool},
		{Method: http.MethodPost, Path: routes.ReturnTool, When: verbRejected},
		{Method: http.MethodPost, Path: routes.ReturnToolAlias, When: notOK},
	}
}

func verbRejected(prev Outcome) bool {
	return prev.Status == http.StatusNotFound || prev.Status == http.StatusMethodNotAllowed
}

func notOK(prev Outcome) bool {
	return !prev.OK()
}

// runLadder executes attempts strictly in order and stops at the first
// success. It returns the last executed outcome and every executed outcome.
func runLadder(ctx context.Context, attempts []Attempt, exec func(context.Context, Attempt) Outcome) (Outcome, []Outcome) {
	var (
		last     Outcome
		executed []Outcome
	)
	for i, attempt := range attempts {
		if i > 0 {
			if last.OK() {
				break
			}
			if attempt.When != nil && !attempt.When(last) {
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			last = Outcome{Method: attempt.Method, Path: attempt.Path, Err: err}
			executed = append(executed, last)
			break
		}
		last = exec(ctx, attempt)
		executed = append(executed, last)
	}
	return last, executed
}
