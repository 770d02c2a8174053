package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ColumnDecoder parses text columns read back from a store. It keeps the
// first failure so a scan helper can decode every field and check once; a
// corrupt stored value fails the read instead of becoming a zero value.
type ColumnDecoder struct {
	err error
}

func (c *ColumnDecoder) Date(column, s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		c.fail(column, s, err)
	}
	return d
}

func (c *ColumnDecoder) Hours(column, s string) decimal.Decimal {
	h, err := decimal.NewFromString(s)
	if err != nil {
		c.fail(column, s, err)
		return decimal.Zero
	}
	return h
}

func (c *ColumnDecoder) fail(column, value string, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("corrupt %s %q: %w", column, value, err)
	}
}

// Err returns the first decoding failure, if any.
func (c *ColumnDecoder) Err() error { return c.err }
