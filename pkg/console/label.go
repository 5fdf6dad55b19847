package console

import "fmt"

// LabelDisplayedRows formats the row range shown under a grid, for example
// "11-20 of 25 partitions".
func LabelDisplayedRows(from, to, count int, noun string) string {
	return fmt.Sprintf("%d-%d of %d %s", from, to, count, noun)
}

// rowsLabel derives the range label for a page. The noun is plural when the
// page shows more than one row.
func rowsLabel(page, pageSize, rows, total int, singular, plural string) string {
	noun := singular
	if rows > 1 {
		noun = plural
	}
	if rows == 0 {
		return LabelDisplayedRows(0, 0, total, noun)
	}
	from := page*pageSize + 1
	return LabelDisplayedRows(from, from+rows-1, total, noun)
}
