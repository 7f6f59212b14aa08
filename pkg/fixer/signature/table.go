package signature

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule is returned by Validate for rules that cannot be applied.
var ErrInvalidRule = errors.New("invalid signature rule")

const (
	// BOM is the decoded byte-order mark.
	BOM = "\ufeff"
	// MojibakeBOM is the UTF-8 byte-order mark read as Latin-1/windows-1252.
	MojibakeBOM = "ï»¿"
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string `yaml:"from" mapstructure:"from" json:"from"`
	To   string `yaml:"to" mapstructure:"to" json:"to"`
}

// Table is an ordered list of rules. Order is significant: each rule sees
// the text produced by the rules before it.
type Table []Rule

// DefaultTable returns the built-in corruption signatures for the Arabic
// storefront pages. The emoji and phrase rules must run before the bare
// question-mark runs, otherwise their "??" prefixes would be consumed first.
func DefaultTable() Table {
	return Table{
		// Icons whose leading bytes were replaced by "??".
		{From: "??â³", To: "â³"},
		{From: "??ğŸ“Š", To: "ğŸ“Š"},
		{From: "??ğŸ‘¥", To: "ğŸ‘¥"},
		{From: "??ğŸ“¦", To: "ğŸ“¦"},
		{From: "??ğŸ§¾", To: "ğŸ§¾"},
		{From: "??âš™ï¸", To: "âš™ï¸"},
		{From: "??âš¡", To: "âš¡"},
		{From: "??ğŸšš", To: "ğŸšš"},

		// Duplicated BOM from a previous conversion.
		{From: "ï»¿ï»¿", To: "ï»¿"},

		// Phrases glued together by an earlier search-and-replace pass.
		{From: "Ø£Ù‡Ù„Ø§Ù‹ ØµØ±ÙØ£Ù‡Ù„Ø§Ù‹ Ø§Ù„Ù…Ù†ØªØ¬", To: "ØªØ³Ø¬ÙŠÙ„ Ø§Ù„Ø®Ø±ÙˆØ¬"},
		{From: "??Ø£Ù‡Ù„Ø§Ù‹ Ø§Ù„Ù…Ù†ØªØ¬", To: "Ù„ÙˆØ\u00adØ© Ø§Ù„ØªØ\u00adÙƒÙ…"},
		{From: "Ù…Ø«Ø§Ù„Ø£Ù‡Ù„Ø§Ù‹ Ù…Ø«Ø§Ù„?", To: "ÙØ§ØªÙˆØ±Ø© Ø¬Ø¯ÙŠØ¯Ø©"},

		// Leftover runs of replacement question marks, longest first.
		{From: "?????", To: ""},
		{From: "????", To: ""},
		{From: "???", To: ""},
		{From: "??", To: ""},
	}
}

// Apply runs every rule in order as a literal, global replacement and
// returns the result with the total number of replacements made.
func (t Table) Apply(text string) (string, int) {
	total := 0
	for _, r := range t {
		if r.From == "" {
			continue
		}
		n := strings.Count(text, r.From)
		if n == 0 {
			continue
		}
		text = strings.ReplaceAll(text, r.From, r.To)
		total += n
	}
	return text, total
}

// Validate rejects rules with an empty From.
func (t Table) Validate() error {
	for i, r := range t {
		if r.From == "" {
			return fmt.Errorf("%w: rule %d has an empty 'from'", ErrInvalidRule, i)
		}
	}
	return nil
}

// StripBOM removes a single leading byte-order mark, decoded or in its
// Latin-1 mojibake form. A second leading mark is left in place.
func StripBOM(text string) (string, bool) {
	if rest, ok := strings.CutPrefix(text, BOM); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(text, MojibakeBOM); ok {
		return rest, true
	}
	return text, false
}
