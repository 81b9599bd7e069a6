package notifications

import "strings"

// Category groups notifications by a case-insensitive substring of their type,
// so new server-side types classify without code changes.
type Category string

const (
	CategoryAppointment Category = "appointment"
	CategoryClient      Category = "client"
	CategoryInvoice     Category = "invoice"
	CategoryDocument    Category = "document"
)

// DefaultCategories are the tabs shown by default.
var DefaultCategories = []Category{
	CategoryAppointment,
	CategoryClient,
	CategoryInvoice,
	CategoryDocument,
}

// Match reports whether notifType contains the category. The empty
// category matches everything.
func (c Category) Match(notifType string) bool {
	return strings.Contains(strings.ToUpper(notifType), strings.ToUpper(string(c)))
}

// Filter returns the notifications in c, preserving order.
func Filter(list []Notification, c Category) []Notification {
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		if n.InCategory(c) {
			out = append(out, n)
		}
	}
	return out
}

// CountByCategory returns the number of notifications per category.
// A notification may count towards several categories.
func CountByCategory(list []Notification, cats ...Category) map[Category]int {
	counts := make(map[Category]int, len(cats))
	for _, c := range cats {
		counts[c] = 0
	}
	for _, n := range list {
		for _, c := range cats {
			if n.InCategory(c) {
				counts[c]++
			}
		}
	}
	return counts
}
