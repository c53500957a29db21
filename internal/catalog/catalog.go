// Package catalog loads the distillery/whisky dataset that feeds the form dropdowns.
package catalog

import (
	"strings"
)

// Row is one parsed CSV line. Distillery is never empty.
type Row struct {
	Distillery string `json:"distillery"`
	Whisky     string `json:"whisky"`
}

// Catalog is the parsed dataset plus a per-distillery index.
// A Catalog is immutable once built and safe for concurrent reads.
type Catalog struct {
	rows         []Row
	distilleries []string
	whiskies     map[string][]string
}

// Empty returns a catalog with no rows.
func Empty() *Catalog {
	return build(nil)
}

// Parse parses a two-column (distillery, whisky) CSV text.
// The first line is a header and is discarded. Only the first two fields of
// a line are used. Parsing is lenient: a line without a comma yields an empty
// whisky, and rows whose distillery is empty after trimming are dropped.
func Parse(text string) *Catalog {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return Empty()
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		fields := strings.Split(line, ",")
		distillery := strings.TrimSpace(fields[0])
		whisky := ""
		if len(fields) > 1 {
			whisky = fields[1]
		}
		if distillery == "" {
			continue
		}
		rows = append(rows, Row{
			Distillery: distillery,
			Whisky:     strings.TrimSpace(whisky),
		})
	}

	return build(rows)
}

func build(rows []Row) *Catalog {
	c := &Catalog{
		rows:     rows,
		whiskies: make(map[string][]string),
	}
	for _, r := range rows {
		if _, seen := c.whiskies[r.Distillery]; !seen {
			c.distilleries = append(c.distilleries, r.Distillery)
		}
		c.whiskies[r.Distillery] = append(c.whiskies[r.Distillery], r.Whisky)
	}
	return c
}

// Rows returns the parsed rows in source order.
func (c *Catalog) Rows() []Row {
	out := make([]Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Distilleries returns each distinct distillery once, in first-seen order.
func (c *Catalog) Distilleries() []string {
	out := make([]string, len(c.distilleries))
	copy(out, c.distilleries)
	return out
}

// Whiskies returns the whiskies listed for distillery, in source order with
// duplicates kept. It returns nil for an unknown distillery.
func (c *Catalog) Whiskies(distillery string) []string {
	list, ok := c.whiskies[distillery]
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Has reports whether the distillery has at least one row.
func (c *Catalog) Has(distillery string) bool {
	_, ok := c.whiskies[distillery]
	return ok
}
