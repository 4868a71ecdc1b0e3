// Package console is a line-oriented View. It reads one command per line,
// forwards it to the presenter callbacks and prints the lists the
// presenter draws.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"bookkeeper/internal/core"
	"bookkeeper/internal/log"
	"bookkeeper/internal/presenter"
	"bookkeeper/internal/services"
)

var ErrUnknownCommand = errors.New("unknown command")

const helpText = `commands:
  categories                                 show the category tree
  expenses                                   list expenses
  budgets                                    list budgets and what was spent
  <amount> <category> [comment]              add an expense, "-" for no category
  add category <name> [under <parent>]       add a category
  add budget <YYYY-MM-DD - YYYY-MM-DD> <amount>
                                             add a custom budget
  delete expense|category|budget <n>         delete entry n
  limit <n> <amount>                         set the limit of budget n
  period <n> <Daily|Weekly|Monthly>          change the period of budget n
  help                                       show this text
  quit                                       leave`

// View implements presenter.View on a reader and a writer.
type View struct {
	in     io.Reader
	out    io.Writer
	styles Styles
	logger *log.Logger

	expenses   list[presenter.ExpenseEntry]
	categories list[presenter.CategoryEntry]
	budgets    budgetList
}

type Option func(*View)

func WithLogger(logger *log.Logger) Option {
	return func(v *View) { v.logger = logger.WithComponent(log.ComponentView) }
}

func New(in io.Reader, out io.Writer, opts ...Option) *View {
	v := &View{
		in:     in,
		out:    out,
		styles: DefaultStyles(),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) Expenses() presenter.EntriesView[presenter.ExpenseEntry] { return &v.expenses }

func (v *View) Categories() presenter.EntriesView[presenter.CategoryEntry] {
	return &v.categories
}

func (v *View) Budgets() presenter.BudgetsView { return &v.budgets }

// Start reads commands until quit, end of input or cancellation of ctx.
func (v *View) Start(ctx context.Context) error {
	fmt.Fprintln(v.out, v.styles.Title.Render("bookkeeper")+v.styles.Muted.Render(`  type "help" for commands`))

	sc := bufio.NewScanner(v.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(v.out, v.styles.Prompt.Render("> "))
		if !sc.Scan() {
			fmt.Fprintln(v.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := v.Exec(ctx, line); err != nil {
			v.logger.DebugContext(ctx, "Command failed", log.NewFields().WithOperation(line).WithError(err).ToSlice()...)
			fmt.Fprintln(v.out, v.styles.Error.Render("error: "+err.Error()))
		}
	}
}

// Exec runs a single command line.
func (v *View) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "help":
		fmt.Fprintln(v.out, helpText)
		return nil
	case "categories":
		v.printCategories()
		return nil
	case "expenses":
		v.printExpenses()
		return nil
	case "budgets":
		v.printBudgets()
		return nil
	case "add":
		return v.add(ctx, fields[1:], line)
	case "delete":
		return v.delete(ctx, fields[1:])
	case "limit":
		return v.editBudget(ctx, fields[1:], func(e *presenter.BudgetEntry, value string) { e.CostLimit = value })
	case "period":
		return v.editBudget(ctx, fields[1:], func(e *presenter.BudgetEntry, value string) { e.Period = value })
	}
	if _, err := core.ParseAmount(fields[0]); err == nil || startsWithDigit(fields[0]) {
		return v.addExpense(ctx, line)
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// addExpense handles "<amount> <category> [comment]". Category names may
// contain spaces, so the longest known name wins.
func (v *View) addExpense(ctx context.Context, line string) error {
	if v.expenses.added == nil || v.expenses.getDefault == nil {
		return errors.New("expenses are not connected")
	}
	entry, err := v.expenses.getDefault(ctx)
	if err != nil {
		return err
	}
	cost, rest, _ := strings.Cut(line, " ")
	entry.Cost = cost
	rest = strings.TrimSpace(rest)
	if rest != "" {
		category, comment, err := v.matchCategory(ctx, rest)
		if err != nil {
			return err
		}
		entry.Category = category
		entry.Comment = comment
	}
	return v.expenses.added(ctx, entry)
}

func (v *View) matchCategory(ctx context.Context, text string) (name, rest string, err error) {
	var allowed []string
	if v.expenses.getAllowed != nil {
		allowed, err = v.expenses.getAllowed(ctx, "category")
		if err != nil {
			return "", "", err
		}
	}
	for _, a := range allowed {
		if (text == a || strings.HasPrefix(text, a+" ")) && len(a) > len(name) {
			name = a
		}
	}
	if name == "" {
		name, rest, _ = strings.Cut(text, " ")
		return name, strings.TrimSpace(rest), nil
	}
	return name, strings.TrimSpace(text[len(name):]), nil
}

func (v *View) add(ctx context.Context, args []string, line string) error {
	if len(args) == 0 {
		return errors.New("usage: add category|budget ...")
	}
	// Everything after "add <kind> ", spacing preserved.
	_, tail, _ := strings.Cut(line, args[0])
	tail = strings.TrimSpace(tail)

	switch args[0] {
	case "category":
		if v.categories.added == nil || v.categories.getDefault == nil {
			return errors.New("categories are not connected")
		}
		entry, err := v.categories.getDefault(ctx)
		if err != nil {
			return err
		}
		name, parent, found := strings.Cut(tail, " under ")
		entry.Category = strings.TrimSpace(name)
		if found {
			entry.Parent = strings.TrimSpace(parent)
		}
		return v.categories.added(ctx, entry)

	case "budget":
		if v.budgets.added == nil || v.budgets.getDefault == nil {
			return errors.New("budgets are not connected")
		}
		idx := strings.LastIndex(tail, " ")
		if idx < 0 {
			return errors.New("usage: add budget YYYY-MM-DD - YYYY-MM-DD <amount>")
		}
		entry, err := v.budgets.getDefault(ctx)
		if err != nil {
			return err
		}
		entry.Period = strings.TrimSpace(tail[:idx])
		entry.CostLimit = tail[idx+1:]
		return v.budgets.added(ctx, entry)
	}
	return fmt.Errorf("%w: add %s", ErrUnknownCommand, args[0])
}

func (v *View) delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: delete expense|category|budget <n>")
	}
	position, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	var cb presenter.DeleteFunc
	switch args[0] {
	case "expense":
		cb = v.expenses.deleted
	case "category":
		cb = v.categories.deleted
	case "budget":
		cb = v.budgets.deleted
	default:
		return fmt.Errorf("%w: delete %s", ErrUnknownCommand, args[0])
	}
	if cb == nil {
		return fmt.Errorf("%s list is not connected", args[0])
	}
	return cb(ctx, []int{position})
}

func (v *View) editBudget(ctx context.Context, args []string, set func(*presenter.BudgetEntry, string)) error {
	if len(args) != 2 {
		return errors.New("usage: limit|period <n> <value>")
	}
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	if position >= len(v.budgets.entries) {
		return fmt.Errorf("%w %d", presenter.ErrPosition, position+1)
	}
	if v.budgets.edited == nil {
		return errors.New("budgets are not connected")
	}
	entry := v.budgets.entries[position]
	set(&entry, args[1])
	return v.budgets.edited(ctx, position, entry)
}

// parsePosition converts a 1-based list number into a position.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid entry number %q", s)
	}
	return n - 1, nil
}

func (v *View) index(i int) string {
	return v.styles.Index.Render(fmt.Sprintf("%3d.", i+1))
}

func (v *View) printExpenses() {
	if len(v.expenses.entries) == 0 {
		fmt.Fprintln(v.out, v.styles.Muted.Render("no expenses"))
		return
	}
	for i, e := range v.expenses.entries {
		line := fmt.Sprintf("%s %s %10s  %s", v.index(i), e.Date, e.Cost, e.Category)
		if e.Comment != "" {
			line += "  " + v.styles.Muted.Render(e.Comment)
		}
		fmt.Fprintln(v.out, line)
	}
}

// printCategories draws the tree. Entries arrive parents first, so every
// parent is known by the time a child refers to it.
func (v *View) printCategories() {
	children := make(map[string][]int)
	for i, e := range v.categories.entries {
		children[e.Parent] = append(children[e.Parent], i)
	}

	var build func(i int) any
	build = func(i int) any {
		e := v.categories.entries[i]
		label := fmt.Sprintf("%s %s", v.index(i), e.Category)
		kids := children[e.Category]
		if len(kids) == 0 {
			return label
		}
		t := tree.New().Root(label)
		for _, k := range kids {
			t.Child(build(k))
		}
		return t
	}

	root := tree.New().Root(v.styles.Title.Render(core.TopCategoryName))
	for _, i := range children[core.TopCategoryName] {
		root.Child(build(i))
	}
	fmt.Fprintln(v.out, root.String())
}

func (v *View) printBudgets() {
	for i, b := range v.budgets.entries {
		status := v.budgets.statuses[i]
		amounts := v.styles.status(status).Render(b.Spent + "/" + b.CostLimit)
		line := fmt.Sprintf("%s %-25s %s  %s", v.index(i), b.Period, amounts, b.Category)
		if status != services.StatusDefault {
			line += " " + v.styles.status(status).Render("("+status.String()+")")
		}
		fmt.Fprintln(v.out, line)
	}
}
