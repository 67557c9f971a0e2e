// Package reconcile plans and applies the edits that bring the wiki's
// redirect pages in line with the redirect sets derived from scraped
// journal infoboxes.
package reconcile

// ActionKind splits the edit allowance into page creations and rewrites of
// existing redirects.
type ActionKind int

const (
	// ActionCreate creates a missing redirect page.
	ActionCreate ActionKind = iota

	// ActionFix overwrites a replaceable redirect with the canonical body.
	ActionFix
)

func (k ActionKind) String() string {
	if k == ActionCreate {
		return "create"
	}
	return "fix"
}

// Budget is the shared per-run edit allowance. Every attempted edit
// consumes from it, successful or not, so a run that keeps failing still
// terminates.
type Budget struct {
	createLimit int
	fixLimit    int
	creates     int
	fixes       int
}

// NewBudget returns a budget allowing the given number of creations and
// fixes per run.
func NewBudget(createLimit, fixLimit int) *Budget {
	return &Budget{createLimit: createLimit, fixLimit: fixLimit}
}

// Allowed reports whether another edit of the given kind fits the budget.
func (b *Budget) Allowed(kind ActionKind) bool {
	if kind == ActionCreate {
		return b.creates < b.createLimit
	}
	return b.fixes < b.fixLimit
}

// Consume counts one attempted edit of the given kind against the budget.
func (b *Budget) Consume(kind ActionKind) {
	if kind == ActionCreate {
		b.creates++
		return
	}
	b.fixes++
}

// Exhausted reports whether neither kind of edit is allowed anymore.
func (b *Budget) Exhausted() bool {
	return !b.Allowed(ActionCreate) && !b.Allowed(ActionFix)
}

// Creates returns the number of creations attempted so far.
func (b *Budget) Creates() int { return b.creates }

// Fixes returns the number of fixes attempted so far.
func (b *Budget) Fixes() int { return b.fixes }
