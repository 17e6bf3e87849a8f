package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies the type of value held by a Cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
)

// DateLayout is used when a date cell is rendered as text.
const DateLayout = "2006-01-02"

// Cell is a single typed value in a Table.
// The zero value is a null cell.
type Cell struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Null returns an empty cell.
func Null() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number returns a numeric cell. NaN is stored as null.
func Number(f float64) Cell {
	if math.IsNaN(f) {
		return Cell{}
	}
	return Cell{kind: KindNumber, num: f}
}

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{kind: KindDate, date: t} }

// Kind returns the kind of value stored in the cell.
func (c Cell) Kind() Kind { return c.kind }

// IsNull reports whether the cell is empty.
func (c Cell) IsNull() bool { return c.kind == KindNull }

// Float returns the numeric value of a number cell.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Time returns the value of a date cell.
func (c Cell) Time() (time.Time, bool) {
	if c.kind != KindDate {
		return time.Time{}, false
	}
	return c.date, true
}

// String renders the cell the way it is written to exports.
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindDate:
		return c.date.Format(DateLayout)
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value (nil, string, float64 or time.Time).
func (c Cell) Value() any {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return c.num
	case KindDate:
		return c.date
	default:
		return nil
	}
}

// Equal reports whether two cells hold the same kind and value.
// Two null cells are equal.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindText:
		return c.text == o.text
	case KindNumber:
		return c.num == o.num
	case KindDate:
		return c.date.Equal(o.date)
	default:
		return true
	}
}

// key is a collision-free encoding used for duplicate detection.
func (c Cell) key() string {
	switch c.kind {
	case KindText:
		return "t" + strconv.Quote(c.text)
	case KindNumber:
		return "n" + strconv.FormatFloat(c.num, 'g', -1, 64)
	case KindDate:
		return "d" + strconv.FormatInt(c.date.UnixNano(), 10)
	default:
		return "_"
	}
}

type jsonDate struct {
	Date string `json:"date"`
}

// MarshalJSON encodes text as a string, numbers as numbers, dates as {"date": "YYYY-MM-DD"}.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		if math.IsInf(c.num, 0) {
			return json.Marshal(c.String())
		}
		return json.Marshal(c.num)
	case KindDate:
		return json.Marshal(jsonDate{Date: c.date.Format(DateLayout)})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*c = Null()
	case string:
		*c = Text(v)
	case float64:
		*c = Number(v)
	case map[string]any:
		s, ok := v["date"].(string)
		if !ok {
			return fmt.Errorf("cell: unexpected object %s", string(data))
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return fmt.Errorf("cell: %w", err)
		}
		*c = Date(t)
	default:
		return fmt.Errorf("cell: unsupported value %s", string(data))
	}
	return nil
}
