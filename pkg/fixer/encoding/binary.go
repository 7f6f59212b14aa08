package encoding

import "github.com/go-enry/go-enry/v2"

// IsBinary reports whether content looks like binary data rather than text.
// Empty content is text.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	return enry.IsBinary(content)
}
