// Package predictions turns OCR text from betting tip sheets into match records.
package predictions

// MatchRecord is one predicted match. It is complete once both Home and Away are set.
type MatchRecord struct {
	League  string `json:"league,omitempty"`
	Time    string `json:"time,omitempty"`
	Home    string `json:"home,omitempty"`
	Away    string `json:"away,omitempty"`
	BestBet string `json:"best_bet,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Complete reports whether the record has both teams and may be emitted.
func (r MatchRecord) Complete() bool {
	return r.Home != "" && r.Away != ""
}

// accumulator holds the record currently being assembled while scanning lines.
type accumulator struct {
	cur MatchRecord
	out []MatchRecord
}

// finalize appends the in-progress record when it is complete and starts a new one.
// It reports whether a record was emitted.
func (a *accumulator) finalize() bool {
	if !a.cur.Complete() {
		return false
	}
	a.out = append(a.out, a.cur)
	a.cur = MatchRecord{}
	return true
}

func (a *accumulator) addNote(line string) {
	if a.cur.Note == "" {
		a.cur.Note = line
		return
	}
	a.cur.Note = a.cur.Note + " " + line
}

// records returns the finalized output after flushing the last record.
func (a *accumulator) records() []MatchRecord {
	a.finalize()
	return a.out
}
