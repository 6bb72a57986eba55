//go:build !windows

package wininfo

type platformResolver struct{}

// Resolve has no window system to consult; callers receive the same empty
// strings an exited process would produce.
func (platformResolver) Resolve(window uintptr) (string, string) {
	return "", ""
}
