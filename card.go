package vcf

// Card is one BEGIN:VCARD ... END:VCARD block. Rows are in the order they
// were read, without the structural BEGIN, END and VERSION lines.
type Card struct {
	Version Version
	Rows    []*RawRow
}

// Get returns the first row named key, or nil.
func (c *Card) Get(key string) *RawRow {
	for _, row := range c.Rows {
		if row.Is(key) {
			return row
		}
	}
	return nil
}

// All returns all rows named key.
func (c *Card) All(key string) []*RawRow {
	var rows []*RawRow
	for _, row := range c.Rows {
		if row.Is(key) {
			rows = append(rows, row)
		}
	}
	return rows
}

// Add appends rows to the card.
func (c *Card) Add(rows ...*RawRow) {
	c.Rows = append(c.Rows, rows...)
}

// attach adds a card nested in a 2.1 AGENT property to the AGENT row that
// precedes it, or to a new AGENT row.
func (c *Card) attach(nested *Card) {
	if n := len(c.Rows); n > 0 {
		last := c.Rows[n-1]
		if last.Is("AGENT") && last.Embedded == nil && last.Value == "" && last.Data == nil {
			last.Embedded = nested
			return
		}
	}
	c.Rows = append(c.Rows, &RawRow{
		Key:      "AGENT",
		Params:   Params{version: c.Version},
		Embedded: nested,
	})
}
