package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// printer serialises writes from the feed goroutines.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	title cases.Caser
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, title: cases.Title(language.English)}
}

func (p *printer) linef(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) notification(n notifications.Notification) {
	mark := " "
	if !n.Read {
		mark = "*"
	}
	p.linef("%s %-24s %-8s %s  %s", mark, n.ID, n.Severity, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title)
}

func (p *printer) toast(t notifications.Toast) {
	p.linef("[%s] %s: %s", strings.ToUpper(string(t.Severity)), t.Title, t.Message)
}

// badges prints the unread badge followed by one tab per category, all
// taken from the same snapshot.
func (p *printer) badges(s notifications.Snapshot) {
	counts := notifications.CountByCategory(s.Notifications, notifications.DefaultCategories...)
	var b strings.Builder
	fmt.Fprintf(&b, "unread %d", s.UnreadCount)
	for _, c := range notifications.DefaultCategories {
		fmt.Fprintf(&b, " | %s %d", p.categoryTitle(c), counts[c])
	}
	if s.Loading {
		b.WriteString(" | loading")
	}
	p.linef("%s", b.String())
}

// categoryTitle serialises access to the caser, which keeps internal state.
func (p *printer) categoryTitle(c notifications.Category) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title.String(string(c))
}
