// Package printer renders CLI output with colors.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"

	"qrmenu/qrmenu-cli/internal/cart"
	"qrmenu/qrmenu-cli/internal/client"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	blue   = color.New(color.FgBlue)
	faint  = color.New(color.Faint)
)

var statusColors = map[string]*color.Color{
	"pending":   yellow,
	"preparing": blue,
	"ready":     green,
	"completed": faint,
}

// Out is where regular output goes. Errors always go to stderr.
var Out io.Writer = os.Stdout

func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func Info(format string, a ...any) {
	fmt.Fprintf(Out, format+"\n", a...)
}

func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "! %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to stderr and returns an
// error carrying only the title for cobra.
func Error(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", explanation)
	}
	if len(suggestions) == 1 {
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	} else if len(suggestions) > 1 {
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Status returns the order status painted in its badge color.
func Status(status string) string {
	c, ok := statusColors[status]
	if !ok {
		return status
	}
	return c.Sprint(status)
}

func tableLabel(table *int) string {
	if table == nil {
		return "counter"
	}
	return "table " + strconv.Itoa(*table)
}

func Cart(c *cart.Cart) {
	if c.IsEmpty() {
		Info("Cart is empty")
		return
	}
	cyan.Fprintf(Out, "Restaurant %s (%s)\n", c.RestaurantID(), tableLabel(c.TableNumber()))
	for _, line := range c.Lines() {
		fmt.Fprintf(Out, "  %-24s %3d x %8s = %8s   [%s]\n",
			line.Name, line.Quantity, line.Price.StringFixed(2), line.Subtotal().StringFixed(2), line.ID)
	}
	name := c.CustomerName()
	if name == "" {
		name = "Guest"
	}
	fmt.Fprintf(Out, "  %d item(s) for %s, total %s\n", c.Count(), name, c.Total().StringFixed(2))
}

func Order(o client.Order) {
	name := o.CustomerInfo.Name
	if name == "" {
		name = "Guest"
	}
	fmt.Fprintf(Out, "%s  %-10s %-9s %-16s %8s  %s\n",
		o.CreatedAt.Local().Format("15:04:05"), Status(o.Status), tableLabel(o.TableNumber),
		name, o.TotalAmount.StringFixed(2), o.ID)
	for _, item := range o.Items {
		faint.Fprintf(Out, "           %d x %s\n", item.Quantity, item.Name)
	}
}

func Snapshot(s client.Snapshot) {
	switch {
	case s.OrderID != "" && s.Order == nil:
		Warning("order %s no longer exists", s.OrderID)
	case s.Order != nil:
		Order(*s.Order)
	default:
		cyan.Fprintf(Out, "-- %s: %d order(s), update %d\n", s.At.Local().Format("15:04:05"), len(s.Orders), s.Version)
		for _, o := range s.Orders {
			Order(o)
		}
	}
}

func Batch(r client.BatchResult) {
	for _, code := range r.Codes {
		fmt.Fprintf(Out, "  %-9s %s\n", tableLabel(code.TableNumber), code.MenuURL)
	}
	if r.Failed == 0 {
		Success("%d code(s) ready", r.Succeeded)
		return
	}
	tables := make([]int, 0, len(r.Errors))
	for table := range r.Errors {
		tables = append(tables, table)
	}
	sort.Ints(tables)
	for _, table := range tables {
		red.Fprintf(Out, "  table %d: %s\n", table, r.Errors[table])
	}
	Warning("%d succeeded, %d failed", r.Succeeded, r.Failed)
}
