package normalize

import (
	"time"

	"github.com/nleeper/goment"
)

// Pattern is a date layout in moment.js syntax, such as
// "YYYY-MM-DD HH:mm:ss.SSS" or "dddd, MMMM Do YYYY, h:mm a". Text inside
// square brackets is copied verbatim.
type Pattern struct {
	layout string
}

// Compile returns the Pattern for layout. It never fails: anything that is
// not a token is kept as a literal.
func Compile(layout string) *Pattern {
	return &Pattern{layout: layout}
}

func (p *Pattern) String() string { return p.layout }

// Format renders t in its own location.
func (p *Pattern) Format(t time.Time) string {
	g, err := goment.New(t)
	if err != nil {
		return t.String()
	}
	return g.Format(p.layout)
}
