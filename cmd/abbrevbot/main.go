// Command abbrevbot maintains the redirects from ISO 4 journal
// abbreviations to their journal articles on a MediaWiki site. It scrapes
// infobox-journal transclusions, hands journal names to an external
// abbreviation oracle through a shared state file, and creates or fixes
// redirect pages within a per-run edit budget.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	statePath  string
	simulate   bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:     "abbrevbot",
		Short:   "Maintain ISO 4 journal abbreviation redirects on a wiki",
		Version: version,
		Long: `abbrevbot keeps the redirects from ISO 4 journal abbreviations to their
journal articles in shape. It scrapes every page transcluding the journal
infobox, records the abbreviations editors entered, and compares them with
the abbreviations computed from the ISO 4 rules by an external oracle
sharing the bot's state file. Redirects that should exist are created,
redirects that only carry provenance tags are rewritten to the canonical
form, and everything surprising ends up on the bot's report pages instead
of being edited.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.statePath, "state", "", "override the state file path")
	rootCmd.PersistentFlags().BoolVar(&flags.simulate, "simulate", false, "plan and log edits without saving anything to the wiki")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newScrapeCmd(flags))
	rootCmd.AddCommand(newFixCmd(flags))
	rootCmd.AddCommand(newReportCmd(flags))
	rootCmd.AddCommand(newFillCmd(flags))
	return rootCmd
}

func newScrapeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape infobox journals and their redirects into the state file",
		Long: `Scrape walks every page transcluding the journal infobox, stores its
infobox parameters and incoming redirects in the state file, and registers
every journal name for the abbreviation oracle. No wiki edits are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				return a.scrapeAll(false)
			})
		},
	}
}

func newFixCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Scrape and reconcile redirects, editing within the run budget",
		Long: `Fix scrapes like the scrape command and additionally reconciles each
page's redirects as it goes: missing abbreviation redirects are created and
replaceable ones rewritten, until the edit budget runs out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				return a.scrapeAll(true)
			})
		},
	}
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Rebuild the report pages from previously scraped state",
		Long: `Report replans every scraped page in simulate mode, gathers the findings
and statistics, and publishes the bot's report pages. The only wiki edits
are the report pages themselves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.simulate = true
			return withApp(flags, func(a *app) error {
				return a.publishReports()
			})
		},
	}
}

func newFillCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Fill empty abbreviation parameters that abbreviate to themselves",
		Long: `Fill walks the maintenance category of journals with a missing ISO 4
abbreviation and fills in the infobox parameter in the safe case where the
computed abbreviation is just the title with articles removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				return a.fillAbbrevs()
			})
		},
	}
}
