package ioc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/width"
)

// Tags that bulletin authors wrap around a single character to break
// auto-linking. They are unwrapped in place; every other tag becomes a line
// break so neighbouring tokens stay apart.
var inlineTags = map[atom.Atom]bool{
	atom.B:      true,
	atom.Strong: true,
	atom.Em:     true,
	atom.I:      true,
	atom.U:      true,
	atom.S:      true,
	atom.Span:   true,
	atom.Font:   true,
	atom.Mark:   true,
	atom.Small:  true,
	atom.Code:   true,
	atom.Tt:     true,
}

// Fullwidth look-alikes of the punctuation used in defanged indicators.
const fullwidthDefang = "．［］：（）｛｝／"

var (
	schemeRe = regexp.MustCompile(`(?i)\bhxxp(s?)\b`)
	dotRe    = regexp.MustCompile(`(?i)\[\.\]|\(\.\)|\{\.\}|\[dot\]|\(dot\)`)
	colonRe  = regexp.MustCompile(`\[://\]|\[:\]`)
)

type Deobfuscator struct{}

func NewDeobfuscator() *Deobfuscator {
	return &Deobfuscator{}
}

// Run rewrites defanged indicators back to their canonical form. Text with
// no known obfuscation comes back unchanged apart from markup removal.
func (d *Deobfuscator) Run(text string) string {
	if text == "" {
		return ""
	}

	text = d.stripMarkup(text)
	text = narrowDefang(text)

	text = colonRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Trim(m, "[]")
	})
	text = dotRe.ReplaceAllString(text, ".")
	text = schemeRe.ReplaceAllStringFunc(text, func(m string) string {
		return "http" + strings.ToLower(m[4:])
	})

	return text
}

func narrowDefang(text string) string {
	if !strings.ContainsAny(text, fullwidthDefang) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if !strings.ContainsRune(fullwidthDefang, r) {
			return r
		}
		if n := width.LookupRune(r).Narrow(); n != 0 {
			return n
		}
		return r
	}, text)
}

func (d *Deobfuscator) stripMarkup(text string) string {
	if !strings.Contains(text, "<") && !strings.Contains(text, "&") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	// One entry per open inline element: whether it opened inside a token.
	var open []bool
	// pendingSep is set when a wrapper that held a whole token closes;
	// afterInlineEnd when nothing has followed an inline end tag yet.
	pendingSep, afterInlineEnd := false, false
	skipping := false

	separate := func(next string) {
		if pendingSep && next != "" && !startsWithSpace(next) && endsInToken(&b) {
			b.WriteByte(' ')
		}
		pendingSep, afterInlineEnd = false, false
	}

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// An unterminated tag at the end of input is prose, e.g. "a<b".
			// io.EOF is the only error a strings.Reader can produce.
			if !skipping {
				raw := string(z.Raw())
				separate(raw)
				b.WriteString(raw)
			}
			return b.String()

		case html.TextToken:
			if !skipping {
				chunk := string(z.Text())
				separate(chunk)
				b.WriteString(chunk)
			}

		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			raw := string(z.Raw())
			tag, ok := markupTag(z, raw)
			if !ok {
				if !skipping {
					separate(raw)
					b.WriteString(raw)
				}
				continue
			}

			if tag == atom.Script || tag == atom.Style {
				skipping = tt == html.StartTagToken
				continue
			}
			if !inlineTags[tag] {
				b.WriteByte('\n')
				open = open[:0]
				pendingSep, afterInlineEnd = false, false
				continue
			}

			switch tt {
			case html.StartTagToken:
				// "</b><b>" always separates two wrapped tokens.
				if (pendingSep || afterInlineEnd) && endsInToken(&b) {
					b.WriteByte(' ')
				}
				pendingSep, afterInlineEnd = false, false
				open = append(open, endsInToken(&b))
			case html.EndTagToken:
				inToken := false
				if n := len(open); n > 0 {
					inToken = open[n-1]
					open = open[:n-1]
				}
				// A wrapper that opened at a token boundary held a whole
				// token, so the token ends with it.
				if !inToken {
					pendingSep = true
				}
				afterInlineEnd = true
			}
		}
	}
}

// markupTag reports whether the current tag token is real markup: a known
// element whose attributes all carry values. Prose such as
// "<http://host/path>" or "a<b and c>d" fails the check and is kept as text.
func markupTag(z *html.Tokenizer, raw string) (atom.Atom, bool) {
	name, hasAttr := z.TagName()
	tag := atom.Lookup(name)
	if tag == 0 {
		return 0, false
	}

	attrs := 0
	for hasAttr {
		_, _, hasAttr = z.TagAttr()
		attrs++
	}
	if attrs > strings.Count(raw, "=") {
		return 0, false
	}

	return tag, true
}

func endsInToken(b *strings.Builder) bool {
	s := b.String()
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return !unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
