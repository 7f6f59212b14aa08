package encoding

import (
	"log/slog"
	"strings"
)

// Result is the outcome of probing a single file's content.
type Result struct {
	Text     string
	Encoding string
	// Fallback is set when no candidate passed the marker check and Text is
	// the lossy UTF-8 decode.
	Fallback bool
}

// Prober guesses the source encoding of Arabic text by decoding with each
// candidate in priority order and accepting the first decode that contains a
// marker substring.
type Prober struct {
	candidates []Candidate
	markers    []string
	logger     *slog.Logger
}

// NewProber creates a Prober. A nil handler discards debug output.
func NewProber(candidates []Candidate, markers []string, loggerHandler slog.Handler) *Prober {
	if loggerHandler == nil {
		loggerHandler = slog.DiscardHandler
	}
	return &Prober{
		candidates: candidates,
		markers:    markers,
		logger:     slog.New(loggerHandler).With(slog.String("component", "prober")),
	}
}

// Probe never fails: when every candidate is rejected the content is decoded
// as UTF-8 with undecodable bytes dropped.
func (p *Prober) Probe(raw []byte) Result {
	for _, c := range p.candidates {
		text, err := DecodeStrict(c, raw)
		if err != nil {
			p.logger.Debug("Candidate rejected", slog.String("encoding", c.Name), slog.String("error", err.Error()))
			continue
		}
		if marker, ok := p.findMarker(text); ok {
			p.logger.Debug("Candidate accepted", slog.String("encoding", c.Name), slog.String("marker", marker))
			return Result{Text: text, Encoding: c.Name}
		}
		p.logger.Debug("Candidate decoded without marker", slog.String("encoding", c.Name))
	}
	fallback := UTF8()
	return Result{Text: DecodeLossy(fallback, raw), Encoding: fallback.Name, Fallback: true}
}

func (p *Prober) findMarker(text string) (string, bool) {
	for _, m := range p.markers {
		if m != "" && strings.Contains(text, m) {
			return m, true
		}
	}
	return "", false
}
