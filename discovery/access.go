package discovery

import "os"

// AccessRequester obtains the platform capability needed to read the scan
// roots. Implementations must not retry internally.
type AccessRequester interface {
	RequestAccess() bool
}

// AccessFunc adapts a plain function to AccessRequester.
type AccessFunc func() bool

// RequestAccess calls f.
func (f AccessFunc) RequestAccess() bool { return f() }

// DirectoryAccess grants access when at least one root can be opened for
// reading. On desktop systems there is no separate permission prompt, so
// readability is the capability.
type DirectoryAccess struct {
	Roots []string
}

// RequestAccess reports whether any root is readable.
func (a DirectoryAccess) RequestAccess() bool {
	for _, root := range a.Roots {
		f, err := os.Open(root)
		if err != nil {
			continue
		}
		f.Close()
		return true
	}
	return false
}
