package encoding

// LenientReader decodes with the first candidate, dropping undecodable
// bytes. It performs no plausibility check, so a wrong first candidate
// silently yields wrong text.
type LenientReader struct {
	candidates []Candidate
}

// NewLenientReader creates a reader over the given candidates.
func NewLenientReader(candidates []Candidate) *LenientReader {
	return &LenientReader{candidates: candidates}
}

// Read returns the decoded text and the label of the encoding used.
func (r *LenientReader) Read(raw []byte) (string, string) {
	// A lossy decode cannot fail, so the first candidate always wins.
	if len(r.candidates) > 0 {
		c := r.candidates[0]
		return DecodeLossy(c, raw), c.Name
	}
	fallback := UTF8()
	return DecodeLossy(fallback, raw), fallback.Name
}
