package convert

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// TypeClass is the display category of a column. It is derived once from
// the type descriptor so cells never inspect type strings.
type TypeClass int

const (
	ClassOther TypeClass = iota
	ClassTimestamp
	ClassDate
	ClassBoolean
	ClassFloat
	ClassDecimal
	ClassInteger
	ClassString
	ClassBinary
	ClassStruct
	ClassList
	ClassMap
)

var classNames = [...]string{
	ClassOther:     "other",
	ClassTimestamp: "timestamp",
	ClassDate:      "date",
	ClassBoolean:   "boolean",
	ClassFloat:     "float",
	ClassDecimal:   "decimal",
	ClassInteger:   "integer",
	ClassString:    "string",
	ClassBinary:    "binary",
	ClassStruct:    "struct",
	ClassList:      "list",
	ClassMap:       "map",
}

func (c TypeClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("TypeClass(%d)", int(c))
	}
	return classNames[c]
}

func (c TypeClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *TypeClass) UnmarshalText(text []byte) error {
	for i, name := range classNames {
		if name == string(text) {
			*c = TypeClass(i)
			return nil
		}
	}
	return errors.Newf("unknown type class %q", text)
}

// Temporal reports whether values of the class are rendered as dates.
func (c TypeClass) Temporal() bool {
	return c == ClassTimestamp || c == ClassDate
}

// Classify maps a type descriptor to its TypeClass by case-insensitive
// substring match. Nested types are classified by their outermost
// constructor. Otherwise timestamp-like names (timestamp, timeinstant,
// datetime) win over date-like ones.
func Classify(typ string) TypeClass {
	s := strings.ToLower(strings.TrimSpace(typ))
	switch {
	case strings.HasPrefix(s, "struct<"):
		return ClassStruct
	case strings.HasPrefix(s, "map<"):
		return ClassMap
	case strings.HasPrefix(s, "list<"),
		strings.HasPrefix(s, "large_list<"),
		strings.HasPrefix(s, "fixed_size_list<"),
		strings.HasPrefix(s, "list_view<"),
		strings.HasPrefix(s, "large_list_view<"):
		return ClassList
	case strings.Contains(s, "timestamp"),
		strings.Contains(s, "timeinstant"),
		strings.Contains(s, "datetime"):
		return ClassTimestamp
	case strings.Contains(s, "date"):
		return ClassDate
	case strings.Contains(s, "bool"):
		return ClassBoolean
	case strings.Contains(s, "float"), strings.Contains(s, "double"):
		return ClassFloat
	case strings.Contains(s, "decimal"):
		return ClassDecimal
	case strings.Contains(s, "utf8"), strings.Contains(s, "string"):
		return ClassString
	case strings.Contains(s, "binary"):
		return ClassBinary
	case strings.Contains(s, "int") && !strings.Contains(s, "interval"):
		return ClassInteger
	case s == "struct":
		return ClassStruct
	case s == "list":
		return ClassList
	case s == "map":
		return ClassMap
	default:
		return ClassOther
	}
}
