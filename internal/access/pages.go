package access

import "strings"

type PageKey string

const (
	PageKeyDashboard PageKey = "admin_dashboard"
	PageKeyUsers     PageKey = "admin_users"
	PageKeyBlog      PageKey = "admin_blog"
	PageKeyTeams     PageKey = "admin_teams"
)

// PageKeys is the closed set of admin page keys, in stable order. Redirect
// targets and validation both rely on this order being fixed.
var PageKeys = []PageKey{
	PageKeyDashboard,
	PageKeyUsers,
	PageKeyBlog,
	PageKeyTeams,
}

var pageKeyToPath = map[PageKey]string{
	PageKeyDashboard: "/dashboard",
	PageKeyUsers:     "/users",
	PageKeyBlog:      "/blog/manage",
	PageKeyTeams:     "/teams",
}

const DashboardPath = "/dashboard"

func IsValidPageKey(key PageKey) bool {
	_, ok := pageKeyToPath[key]
	return ok
}

// PathForKey returns the canonical path of a page key and whether the key is
// part of the closed set.
func PathForKey(key PageKey) (string, bool) {
	path, ok := pageKeyToPath[key]
	return path, ok
}

// NormalizePath strips the query string, the fragment and any trailing
// slashes, keeping the leading slash. The root path stays "/".
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}

	path = "/" + strings.Trim(path, "/")

	return path
}

// RequiredKeyForPath maps a request path to the page key that protects it.
// API paths are matched with their /api segment stripped, so /api/teams
// requires the same key as /teams. Unmapped paths fall back to the dashboard
// key.
func RequiredKeyForPath(path string) PageKey {
	path = NormalizePath(path)
	path = strings.TrimPrefix(path, "/api")
	if path == "" {
		path = "/"
	}

	switch {
	case path == "/dashboard":
		return PageKeyDashboard
	case strings.HasPrefix(path, "/users"):
		return PageKeyUsers
	case strings.HasPrefix(path, "/teams"):
		return PageKeyTeams
	case strings.HasPrefix(path, "/blog/manage"):
		return PageKeyBlog
	}

	return PageKeyDashboard
}

// IsAPIPath reports whether the path is a data request rather than a page
// navigation. API requests get a structured 403 instead of a redirect.
func IsAPIPath(path string) bool {
	return strings.HasPrefix(NormalizePath(path)+"/", "/api/")
}
