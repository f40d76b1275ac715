package predictions

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultLeagueKeywords are matched case-insensitively as substrings of a line to
// detect competition headers.
var DefaultLeagueKeywords = []string{
	"League",
	"Division",
	"Veikkausliiga",
	"V League",
	"Pro League",
	"Superliga",
	"First Division",
}

// blank matches any character isSpace accepts.
const blank = `[\s\p{Z}\x{85}\x{1c}-\x{1f}]`

var (
	timeRE    = regexp.MustCompile(`^\p{Nd}{1,2}:\p{Nd}{2}$`)
	bestBetRE = regexp.MustCompile(`(?i)Best Bet[:\-]?` + blank + `*(.+)`)
	matchupRE = regexp.MustCompile(`(?i)(.+?)` + blank + `+vs\.?` + blank + `+(.+)`)
)

// LineKind classifies a single OCR line.
type LineKind int

const (
	LineNoise LineKind = iota
	LineLeague
	LineTime
	LineBestBet
	LineMatchup
	LineNote
)

func (k LineKind) String() string {
	switch k {
	case LineLeague:
		return "league"
	case LineTime:
		return "time"
	case LineBestBet:
		return "best_bet"
	case LineMatchup:
		return "matchup"
	case LineNote:
		return "note"
	}
	return "noise"
}

// Line is a classified OCR line with its extracted values.
type Line struct {
	Kind LineKind
	Text string
	// Values holds the captured fields: the bet for LineBestBet, home and away
	// for LineMatchup.
	Values []string
}

// Parser converts OCR text into match records. The zero value uses DefaultLeagueKeywords.
type Parser struct {
	leagues []string
}

// NewParser returns a parser detecting league headers with the given keywords.
// An empty list falls back to DefaultLeagueKeywords.
func NewParser(leagueKeywords []string) *Parser {
	var kws []string
	for _, k := range leagueKeywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, strings.ToLower(k))
		}
	}
	return &Parser{leagues: kws}
}

func (p *Parser) keywords() []string {
	if p == nil || len(p.leagues) == 0 {
		out := make([]string, len(DefaultLeagueKeywords))
		for i, k := range DefaultLeagueKeywords {
			out[i] = strings.ToLower(k)
		}
		return out
	}
	return p.leagues
}

// Classify applies the line rules in precedence order; the first matching rule wins.
func (p *Parser) Classify(line string) Line {
	return p.classify(line, p.keywords())
}

func (p *Parser) classify(line string, leagues []string) Line {
	low := strings.ToLower(line)
	for _, k := range leagues {
		if strings.Contains(low, k) {
			return Line{Kind: LineLeague, Text: line}
		}
	}
	if timeRE.MatchString(line) {
		return Line{Kind: LineTime, Text: line}
	}
	if m := bestBetRE.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineBestBet, Text: line, Values: []string{trim(m[1])}}
	}
	if m := matchupRE.FindStringSubmatch(line); m != nil {
		home := trim(m[1])
		away := trim(m[2])
		if home != "" && away != "" {
			return Line{Kind: LineMatchup, Text: line, Values: []string{home, away}}
		}
	}
	// "best" guard keeps stray best-bet fragments out of notes, at the cost of
	// dropping genuine notes that mention it.
	if len(strings.FieldsFunc(line, isSpace)) > 2 && !strings.Contains(low, "best") {
		return Line{Kind: LineNote, Text: line}
	}
	return Line{Kind: LineNoise, Text: line}
}

// Parse scans text line by line and returns the completed records in order of
// appearance. Records missing either team are dropped.
func (p *Parser) Parse(text string) []MatchRecord {
	leagues := p.keywords()
	var acc accumulator
	for _, ln := range splitLines(text) {
		l := p.classify(ln, leagues)
		switch l.Kind {
		case LineLeague:
			acc.finalize()
			acc.cur.League = l.Text
		case LineTime:
			acc.cur.Time = l.Text
		case LineBestBet:
			acc.cur.BestBet = l.Values[0]
		case LineMatchup:
			acc.cur.Home = l.Values[0]
			acc.cur.Away = l.Values[1]
		case LineNote:
			acc.addNote(l.Text)
		}
	}
	return acc.records()
}

// Parse runs the default parser over text.
func Parse(text string) []MatchRecord {
	return (*Parser)(nil).Parse(text)
}

// splitLines returns the trimmed, non-empty lines of text. Besides \n and \r,
// vertical tab, form feed, the file/group/record separators, NEL and the Unicode
// line and paragraph separators all end a line.
func splitLines(text string) []string {
	var out []string
	for _, ln := range strings.FieldsFunc(text, isLineBreak) {
		if ln = trim(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// isSpace is unicode.IsSpace widened to the ASCII separator controls, which OCR
// engines occasionally emit between words.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}
