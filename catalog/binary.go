package catalog

// sniffLen is how many leading bytes are inspected when guessing whether
// a file holds text.
const sniffLen = 512

// IsBinaryContent reports whether data looks binary. A NUL byte within the
// first sniffLen bytes is treated as binary.
func IsBinaryContent(data []byte) bool {
	n := min(len(data), sniffLen)
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
