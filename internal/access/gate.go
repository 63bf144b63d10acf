package access

type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Forbid
)

// Verdict is the gate's answer for one request. RedirectPath is only set when
// Outcome is Redirect.
type Verdict struct {
	Outcome      Outcome
	RedirectPath string
}

// Authorize enforces a resolved decision against a request path. The gate
// only restricts global admins further; it never grants access to anyone
// else, so non-admin callers always pass through untouched.
//
// Restricted admins hitting a page outside their set are redirected to the
// first page they may see; data requests under /api get Forbid instead, to be
// surfaced as a structured 403.
func Authorize(isGlobalAdmin bool, d Decision, path string) Verdict {
	if !isGlobalAdmin {
		return Verdict{Outcome: Allow}
	}
	if d.IsUnrestricted() {
		return Verdict{Outcome: Allow}
	}

	required := RequiredKeyForPath(path)
	if d.Permits(required) {
		return Verdict{Outcome: Allow}
	}

	if IsAPIPath(path) {
		return Verdict{Outcome: Forbid}
	}

	return Verdict{Outcome: Redirect, RedirectPath: d.FallbackPath()}
}
