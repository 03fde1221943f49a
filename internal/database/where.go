package database

import (
	"strconv"
	"strings"
)

// Where accumulates AND-ed SQL conditions. Conditions are written with "?"
// placeholders which are renumbered to $1, $2, ... as they are added.
type Where struct {
	conds []string
	args  []any
}

func (w *Where) And(cond string, args ...any) *Where {
	var b strings.Builder
	next := 0
	for _, r := range cond {
		if r == '?' && next < len(args) {
			w.args = append(w.args, args[next])
			next++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
	return w
}

func (w *Where) Len() int {
	return len(w.conds)
}

// SQL returns the clause including the WHERE keyword, or "" when empty.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}

// Placeholder returns the placeholder the next appended argument will get.
func (w *Where) Placeholder(offset int) string {
	return "$" + strconv.Itoa(len(w.args)+offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching s anywhere in the value.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
