package reconcile

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/coolbeans/abbrevbot/pkg/derive"
	"github.com/coolbeans/abbrevbot/pkg/findings"
	"github.com/coolbeans/abbrevbot/pkg/state"
	"github.com/coolbeans/abbrevbot/pkg/wikitext"
)

const (
	createSummary = "Creating redirect from ISO 4 abbreviation. Report bugs and suggestions to [[User talk:AbbrevBot]]"
	fixSummary    = "Marking as {{R from ISO 4}}. Report bugs and suggestions to [[User talk:AbbrevBot]]"

	// superfluousDistanceThreshold caps the edit distance at which an
	// unexpected ISO-4 redirect is still reported with a nearest required
	// title. Anything farther is assumed unrelated.
	superfluousDistanceThreshold = 8
)

// PageStore is the effectful document-store surface the driver needs. Each
// save is either create-only or overwrite-only, never both, so a race with
// another editor fails instead of clobbering their work.
type PageStore interface {
	PageExists(title string) (bool, error)
	CreatePage(title, text, summary string) error
	OverwritePage(title, text, summary string) error
	Purge(title string) error
}

// Run carries the shared mutable state of one reconciliation run: its
// identifier, edit budget, findings and logger.
type Run struct {
	ID       string
	Budget   *Budget
	Findings *findings.Accumulator
	Simulate bool
	Logger   *zap.Logger
}

// NewRun starts a run with a fresh identifier. In simulate mode the driver
// plans and logs edits without touching the wiki or the budget.
func NewRun(budget *Budget, simulate bool, logger *zap.Logger) *Run {
	id := uuid.NewString()
	return &Run{
		ID:       id,
		Budget:   budget,
		Findings: findings.New(),
		Simulate: simulate,
		Logger:   logger.With(zap.String("run_id", id)),
	}
}

// PlannedAction is one edit the driver intends to make for a page.
type PlannedAction struct {
	Kind          ActionKind
	RedirectTitle string
	Body          string
	InfoboxTitle  string
}

// PagePlan is the dry evaluation of every required redirect title for one
// page. Actions are ordered by redirect title.
type PagePlan struct {
	PageTitle string
	Actions   []PlannedAction

	// Valid counts required titles whose existing redirect is already
	// canonical.
	Valid int

	// Unsafe is set when an existing redirect in the snapshot points at a
	// different page than the one being reconciled. The whole page is
	// then left alone.
	Unsafe       bool
	UnsafeReason string
}

// Outcome is the terminal result of applying a plan.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeBudgetExhausted Outcome = "budget-exhausted"
	OutcomeNoOp            Outcome = "no-op"
)

// PageResult summarizes what applying one page's plan did.
type PageResult struct {
	PageTitle string
	Outcome   Outcome
	Applied   int
	Planned   int
	Failed    int
	Aborted   bool
}

// Driver turns required-redirect sets into wiki edits.
type Driver struct {
	store PageStore
	run   *Run
}

func NewDriver(store PageStore, run *Run) *Driver {
	return &Driver{store: store, run: run}
}

// ReconcilePage derives nothing itself; it takes the required set already
// computed for the page, plans edits against the scraped redirect
// snapshot, applies the plan under the budget, and finally scans for
// superfluous ISO-4 redirects when the set is exhaustive.
func (d *Driver) ReconcilePage(pageTitle string, page *state.PageData, required map[string]derive.RequiredRedirect, incomplete bool) PageResult {
	plan := d.PlanPage(pageTitle, page, required)
	result := d.ApplyPage(plan)
	if len(required) > 0 && !incomplete {
		d.scanSuperfluous(pageTitle, page, required)
	}
	return result
}

// PlanPage classifies every required redirect title for a page. Missing
// titles become creations after a liveness check against the store;
// replaceable redirects become fixes; anything else is recorded as a
// finding and left alone.
func (d *Driver) PlanPage(pageTitle string, page *state.PageData, required map[string]derive.RequiredRedirect) *PagePlan {
	plan := &PagePlan{PageTitle: pageTitle}
	logger := d.run.Logger.With(zap.String("page", pageTitle))

	for _, title := range sortedTitles(required) {
		redirect := required[title]
		existing, known := page.Redirects[title]
		if !known {
			exists, err := d.store.PageExists(title)
			if err != nil {
				logger.Warn("existence check failed, skipping title",
					zap.String("redirect", title), zap.Error(err))
				continue
			}
			if exists {
				d.run.Findings.AddExistingPage(findings.ExistingPage{
					PageTitle:     pageTitle,
					InfoboxTitle:  redirect.InfoboxTitle,
					RedirectTitle: title,
				})
				continue
			}
			plan.Actions = append(plan.Actions, PlannedAction{
				Kind:          ActionCreate,
				RedirectTitle: title,
				Body:          redirect.Body,
				InfoboxTitle:  redirect.InfoboxTitle,
			})
			continue
		}

		switch {
		case wikitext.IsValidISO4Redirect(existing, pageTitle):
			plan.Valid++
		case wikitext.IsReplaceableRedirect(existing, pageTitle):
			plan.Actions = append(plan.Actions, PlannedAction{
				Kind:          ActionFix,
				RedirectTitle: title,
				Body:          wikitext.CanonicalRedirectBody(pageTitle),
				InfoboxTitle:  redirect.InfoboxTitle,
			})
		default:
			if wikitext.HasModificationTag(existing) {
				logger.Info("redirect carries a modification tag, leaving for manual review",
					zap.String("redirect", title))
			}
			d.run.Findings.AddExistingRedirect(findings.ExistingRedirect{
				PageTitle:     pageTitle,
				InfoboxTitle:  redirect.InfoboxTitle,
				RedirectTitle: title,
				Content:       existing,
			})
			if target := wikitext.RedirectTarget(existing); target != "" && target != wikitext.NormalizeTitle(pageTitle) {
				plan.Unsafe = true
				plan.UnsafeReason = "redirect " + title + " points at " + target
			}
		}
	}
	return plan
}

// ApplyPage executes a plan. Edits are attempted in plan order; each
// attempt consumes budget before the store is called, so failed saves
// still count. After the first successful edit the target page is purged
// to refresh its incoming-redirect listings.
func (d *Driver) ApplyPage(plan *PagePlan) PageResult {
	result := PageResult{PageTitle: plan.PageTitle, Outcome: OutcomeNoOp}
	logger := d.run.Logger.With(zap.String("page", plan.PageTitle))

	if plan.Unsafe {
		logger.Warn("skipping page with a foreign redirect", zap.String("reason", plan.UnsafeReason))
		result.Aborted = true
		return result
	}

	deniedByBudget := false
	for _, action := range plan.Actions {
		if !d.run.Budget.Allowed(action.Kind) {
			deniedByBudget = true
			result.Planned++
			continue
		}
		if d.run.Simulate {
			logger.Info("simulate: would edit redirect",
				zap.String("redirect", action.RedirectTitle),
				zap.String("kind", action.Kind.String()))
			result.Planned++
			continue
		}
		d.run.Budget.Consume(action.Kind)
		var err error
		if action.Kind == ActionCreate {
			err = d.store.CreatePage(action.RedirectTitle, action.Body, createSummary)
		} else {
			err = d.store.OverwritePage(action.RedirectTitle, action.Body, fixSummary)
		}
		if err != nil {
			result.Failed++
			logger.Error("redirect edit failed",
				zap.String("redirect", action.RedirectTitle),
				zap.String("kind", action.Kind.String()),
				zap.Error(err))
			continue
		}
		result.Applied++
		logger.Info("edited redirect",
			zap.String("redirect", action.RedirectTitle),
			zap.String("kind", action.Kind.String()))
	}

	if result.Applied > 0 {
		if err := d.store.Purge(plan.PageTitle); err != nil {
			logger.Warn("purge failed", zap.Error(err))
		}
		result.Outcome = OutcomeApplied
	} else if deniedByBudget {
		result.Outcome = OutcomeBudgetExhausted
	}
	return result
}

// scanSuperfluous reports redirects tagged as ISO-4 whose titles the
// derived set does not call for. Titles containing a required title, minus
// its qualifier suffix, are expected variants and stay quiet; the rest are
// reported with the nearest required title when one is within editing
// distance.
func (d *Driver) scanSuperfluous(pageTitle string, page *state.PageData, required map[string]derive.RequiredRedirect) {
	requiredTitles := sortedTitles(required)
	stripped := make([]string, 0, len(requiredTitles))
	for _, title := range requiredTitles {
		if s := stripQualifier(title); s != "" {
			stripped = append(stripped, s)
		}
	}

	redirectTitles := make([]string, 0, len(page.Redirects))
	for title := range page.Redirects {
		redirectTitles = append(redirectTitles, title)
	}
	sort.Strings(redirectTitles)

	for _, redirectTitle := range redirectTitles {
		content := page.Redirects[redirectTitle]
		if !strings.Contains(content, "R from ISO 4") {
			continue
		}
		if _, ok := required[redirectTitle]; ok {
			continue
		}
		if isExpectedVariant(redirectTitle, stripped) {
			continue
		}
		nearest := ""
		best := len(redirectTitle)
		for _, requiredTitle := range requiredTitles {
			if dist := levenshtein(redirectTitle, requiredTitle); dist < best {
				best = dist
				nearest = requiredTitle
			}
		}
		if best <= superfluousDistanceThreshold {
			d.run.Findings.AddSuperfluousRedirect(findings.SuperfluousRedirect{
				PageTitle:       pageTitle,
				RedirectTitle:   redirectTitle,
				Content:         content,
				NearestRequired: nearest,
			})
		}
	}
}

func isExpectedVariant(redirectTitle string, strippedRequired []string) bool {
	for _, stripped := range strippedRequired {
		if strings.Contains(redirectTitle, stripped) {
			return true
		}
	}
	return false
}

// stripQualifier cuts a trailing parenthesized or colon-separated
// qualifier off a required title.
func stripQualifier(title string) string {
	if i := strings.IndexAny(title, ":("); i >= 0 {
		title = title[:i]
	}
	return strings.TrimRight(title, " ")
}

func levenshtein(a, b string) int {
	dmp := diffmatchpatch.New()
	return dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
}

func sortedTitles(required map[string]derive.RequiredRedirect) []string {
	titles := make([]string, 0, len(required))
	for title := range required {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
