package main

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/coolbeans/abbrevbot/pkg/abbrev"
	"github.com/coolbeans/abbrevbot/pkg/config"
	"github.com/coolbeans/abbrevbot/pkg/derive"
	"github.com/coolbeans/abbrevbot/pkg/mediawiki"
	"github.com/coolbeans/abbrevbot/pkg/reconcile"
	"github.com/coolbeans/abbrevbot/pkg/report"
	"github.com/coolbeans/abbrevbot/pkg/state"
	"github.com/coolbeans/abbrevbot/pkg/wikitext"
)

const fillSummary = "Adding the trivial ISO 4 abbreviation. Report bugs and suggestions to [[User talk:AbbrevBot]]"

// app wires one bot invocation together: config, state, wiki client,
// logger and the reconciliation run.
type app struct {
	config config.Config
	store  *state.Store
	client *mediawiki.Client
	logger *zap.Logger
	run    *reconcile.Run
	driver *reconcile.Driver
}

// withApp builds the app from the flags, hands it to fn, and saves the
// state file exactly once on the way out. The save also happens after a
// failed run so that names registered for the oracle are not lost.
func withApp(flags *rootFlags, fn func(*app) error) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	runErr := fn(a)
	if err := a.store.Save(); err != nil {
		a.logger.Error("failed to save state", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func newApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.statePath != "" {
		cfg.StateFile = flags.statePath
	}

	logger, err := newLogger(flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := state.Load(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	client := mediawiki.NewClient(mediawiki.ClientConfig{
		APIURL:    cfg.APIURL,
		UserAgent: cfg.UserAgent,
		RateLimit: cfg.RateLimit.Std(),
		Logger:    logger,
	})
	if cfg.Username != "" {
		if err := client.Login(cfg.Username, cfg.Password); err != nil {
			return nil, err
		}
	}

	run := reconcile.NewRun(reconcile.NewBudget(cfg.CreateLimit, cfg.FixLimit), flags.simulate, logger)
	return &app{
		config: cfg,
		store:  store,
		client: client,
		logger: run.Logger,
		run:    run,
		driver: reconcile.NewDriver(client, run),
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// scrapeAll walks every page transcluding the journal infobox template and
// records it in the state. With fixing set, each page is also reconciled
// as it is scraped, and the walk stops once the edit budget is exhausted.
func (a *app) scrapeAll(fixing bool) error {
	scraped := 0
	err := a.client.PagesEmbedding(a.config.Template, a.config.ScrapeLimit, func(page mediawiki.Page) error {
		data, err := a.scrapePage(page)
		if err != nil {
			a.logger.Warn("failed to scrape page", zap.String("page", page.Title), zap.Error(err))
			return nil
		}
		scraped++
		if !fixing {
			return nil
		}
		required, incomplete := derive.Required(page.Title, data, a.store, a.run.Findings)
		result := a.driver.ReconcilePage(page.Title, data, required, incomplete)
		a.logger.Debug("page reconciled",
			zap.String("page", page.Title),
			zap.String("outcome", string(result.Outcome)),
			zap.Int("applied", result.Applied))
		if a.run.Budget.Exhausted() {
			a.logger.Info("edit budget exhausted, stopping early")
			return mediawiki.ErrStop
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.logger.Info("scrape finished",
		zap.Int("pages", scraped),
		zap.Int("creates", a.run.Budget.Creates()),
		zap.Int("fixes", a.run.Budget.Fixes()))
	return nil
}

// scrapePage stores one page's whitelisted infobox parameters and incoming
// redirect bodies, and registers every journal name it sees for the
// abbreviation oracle.
func (a *app) scrapePage(page mediawiki.Page) (*state.PageData, error) {
	text := wikitext.NFC(page.Text)
	data := &state.PageData{Redirects: make(map[string]string)}
	for _, params := range wikitext.ExtractInfoboxes(text, a.config.Template) {
		infobox := state.Infobox(params)
		data.Infoboxes = append(data.Infoboxes, infobox)
		if infobox.Title() != "" {
			a.store.SaveNameForComputation(infobox.Title())
		}
	}

	redirects, err := a.client.RedirectsToPage(page.Title, a.config.RedirectLimit)
	if err != nil {
		return nil, err
	}
	delete(redirects, page.Title)
	data.Redirects = redirects

	a.store.SavePageData(page.Title, data)
	a.store.SaveNameForComputation(abbrev.StripTitle(page.Title))
	return data, nil
}

// publishReports replans every scraped page from the state file, gathering
// findings without editing, then renders and saves the report pages.
func (a *app) publishReports() error {
	for _, pageTitle := range a.store.PageTitles() {
		data, ok := a.store.PageData(pageTitle)
		if !ok {
			continue
		}
		required, incomplete := derive.Required(pageTitle, data, a.store, a.run.Findings)
		a.driver.ReconcilePage(pageTitle, data, required, incomplete)
	}
	stats := report.ComputeStats(a.store)
	return report.Publish(a.client, a.config.ReportPages, stats, a.run.Findings, a.logger)
}

// articlePattern matches the leading articles dropped when deciding
// whether a title abbreviates to itself.
var articlePattern = regexp.MustCompile(`(The|the|A|a)\s+`)

// fillAbbrevs walks the maintenance category of journals with a missing
// abbreviation and fills in the infobox parameter in the one safe case:
// the computed abbreviation is the title itself, minus articles.
func (a *app) fillAbbrevs() error {
	return a.client.PagesInCategory(a.config.FillCategory, a.config.ScrapeLimit, func(page mediawiki.Page) error {
		text := wikitext.NFC(page.Text)
		title := abbrev.StripTitle(page.Title)
		edited := text
		changed := false
		for i, params := range wikitext.ExtractInfoboxes(text, a.config.Template) {
			if params["abbreviation"] != "" {
				continue
			}
			if name := params["title"]; name != "" && name != title {
				continue
			}
			computed, err := a.store.GetAbbrev(title, abbrev.GuessLanguage(params["language"], params["country"]))
			if errors.Is(err, state.ErrNotComputed) {
				a.store.SaveNameForComputation(title)
				continue
			}
			if err != nil || computed == "" {
				continue
			}
			if computed != articlePattern.ReplaceAllString(title, "") {
				continue
			}
			next, err := wikitext.FillAbbreviation(edited, a.config.Template, i, computed)
			if err != nil {
				a.logger.Warn("failed to fill abbreviation",
					zap.String("page", page.Title), zap.Error(err))
				continue
			}
			edited = next
			changed = true
		}
		if !changed {
			return nil
		}
		if !a.run.Budget.Allowed(reconcile.ActionFix) {
			a.logger.Info("edit budget exhausted, stopping early")
			return mediawiki.ErrStop
		}
		if a.run.Simulate {
			a.logger.Info("simulate: would fill abbreviation", zap.String("page", page.Title))
			return nil
		}
		a.run.Budget.Consume(reconcile.ActionFix)
		if err := a.client.OverwritePage(page.Title, edited, fillSummary); err != nil {
			a.logger.Error("failed to save filled infobox",
				zap.String("page", page.Title), zap.Error(err))
			return nil
		}
		a.logger.Info("filled abbreviation", zap.String("page", page.Title))
		return nil
	})
}
