// Package state persists everything the bot learns between runs: scraped
// page data and the abbreviations computed by the external ISO-4 oracle.
// The file layout is shared with the oracle process, which fills in
// abbreviations between runs, so it must stay stable.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotComputed is returned when an abbreviation has been requested from
// the oracle but not computed yet.
var ErrNotComputed = errors.New("abbreviation not computed yet")

// matchingPatternsKey is the pseudo-language under which the oracle stores
// the LTWA patterns it applied. It is not an abbreviation and is kept out
// of GetAllAbbrevs.
const matchingPatternsKey = "matchingPatterns"

// Infobox is the whitelisted parameter set scraped from one infobox-journal
// template.
type Infobox map[string]string

func (ib Infobox) Title() string        { return ib["title"] }
func (ib Infobox) Abbreviation() string { return ib["abbreviation"] }
func (ib Infobox) Language() string     { return ib["language"] }
func (ib Infobox) Country() string      { return ib["country"] }

// PageData is everything scraped about one journal page: its infoboxes in
// document order and the bodies of the redirects pointing at it, keyed by
// redirect title. The page itself never appears among its own redirects.
type PageData struct {
	Infoboxes []Infobox         `json:"infoboxes"`
	Redirects map[string]string `json:"redirects"`
}

// AbbrevStatus describes how far the oracle has gotten with one name.
type AbbrevStatus int

const (
	// StatusNotRequested means the name was never handed to the oracle.
	StatusNotRequested AbbrevStatus = iota

	// StatusPending means the name awaits computation by the oracle.
	StatusPending

	// StatusComputed means the oracle has stored per-language results.
	StatusComputed
)

// abbrevEntry is the stored oracle result for one name. A pending name is
// serialized as the JSON literal false, which is what the oracle process
// expects to find and replace.
type abbrevEntry struct {
	computed bool
	abbrevs  map[string]string
	patterns string
}

func (e abbrevEntry) MarshalJSON() ([]byte, error) {
	if !e.computed {
		return []byte("false"), nil
	}
	out := make(map[string]string, len(e.abbrevs)+1)
	for language, abbrev := range e.abbrevs {
		out[language] = abbrev
	}
	out[matchingPatternsKey] = e.patterns
	return json.Marshal(out)
}

func (e *abbrevEntry) UnmarshalJSON(data []byte) error {
	var pending bool
	if err := json.Unmarshal(data, &pending); err == nil {
		if pending {
			return fmt.Errorf("unexpected abbreviation value true")
		}
		*e = abbrevEntry{}
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	e.computed = true
	e.patterns = out[matchingPatternsKey]
	delete(out, matchingPatternsKey)
	e.abbrevs = out
	return nil
}

type snapshot struct {
	Pages   map[string]*PageData    `json:"pages"`
	Abbrevs map[string]*abbrevEntry `json:"abbrevs"`
}

// Store is the in-memory working copy of the state file. It is loaded once
// at startup and written back once at exit; nothing else touches the file
// while the bot runs.
type Store struct {
	path string
	data snapshot
}

// Load reads the state file at path, or starts an empty store when the
// file does not exist yet. Any other read or decode failure is returned;
// running with silently dropped state would re-request every abbreviation.
func Load(path string) (*Store, error) {
	store := &Store{
		path: path,
		data: snapshot{
			Pages:   make(map[string]*PageData),
			Abbrevs: make(map[string]*abbrevEntry),
		},
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, fmt.Errorf("failed to decode state file %s: %w", path, err)
	}
	if store.data.Pages == nil {
		store.data.Pages = make(map[string]*PageData)
	}
	if store.data.Abbrevs == nil {
		store.data.Abbrevs = make(map[string]*abbrevEntry)
	}
	return store, nil
}

// Save writes the store back to its file. The write goes through a
// temporary file in the same directory followed by a rename, so a crash
// mid-write leaves the previous snapshot intact.
func (s *Store) Save() error {
	raw, err := json.MarshalIndent(s.data, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// SavePageData replaces the scraped data for one page title.
func (s *Store) SavePageData(pageTitle string, data *PageData) {
	s.data.Pages[pageTitle] = data
}

// PageData returns the scraped data for a page, if any.
func (s *Store) PageData(pageTitle string) (*PageData, bool) {
	data, ok := s.data.Pages[pageTitle]
	return data, ok
}

// PageTitles returns every scraped page title in sorted order, giving runs
// a deterministic iteration order.
func (s *Store) PageTitles() []string {
	titles := make([]string, 0, len(s.data.Pages))
	for title := range s.data.Pages {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// SaveNameForComputation registers a name for the oracle to compute. Names
// the oracle already knows, computed or pending, are left alone.
func (s *Store) SaveNameForComputation(name string) {
	if _, ok := s.data.Abbrevs[name]; ok {
		return
	}
	s.data.Abbrevs[name] = &abbrevEntry{}
}

// AbbrevStatus reports how far the oracle has gotten with a name.
func (s *Store) AbbrevStatus(name string) AbbrevStatus {
	entry, ok := s.data.Abbrevs[name]
	switch {
	case !ok:
		return StatusNotRequested
	case !entry.computed:
		return StatusPending
	default:
		return StatusComputed
	}
}

// GetAbbrev returns the computed abbreviation of a name under the given
// language rules. An empty result means the rules leave the name as is.
// Names the oracle has not finished yield ErrNotComputed.
func (s *Store) GetAbbrev(name, language string) (string, error) {
	entry, ok := s.data.Abbrevs[name]
	if !ok || !entry.computed {
		return "", fmt.Errorf("%q: %w", name, ErrNotComputed)
	}
	return entry.abbrevs[language], nil
}

// GetAllAbbrevs returns every per-language abbreviation computed for a
// name, without the stored matching patterns.
func (s *Store) GetAllAbbrevs(name string) (map[string]string, error) {
	entry, ok := s.data.Abbrevs[name]
	if !ok || !entry.computed {
		return nil, fmt.Errorf("%q: %w", name, ErrNotComputed)
	}
	abbrevs := make(map[string]string, len(entry.abbrevs))
	for language, abbrev := range entry.abbrevs {
		abbrevs[language] = abbrev
	}
	return abbrevs, nil
}

// GetMatchingPatterns returns the LTWA patterns the oracle matched while
// abbreviating a name, as display text for reports.
func (s *Store) GetMatchingPatterns(name string) (string, error) {
	entry, ok := s.data.Abbrevs[name]
	if !ok || !entry.computed {
		return "", fmt.Errorf("%q: %w", name, ErrNotComputed)
	}
	return entry.patterns, nil
}

// SetComputed stores a finished oracle result for a name. The bot itself
// only does this in tests; in production the oracle process edits the
// state file directly.
func (s *Store) SetComputed(name string, abbrevs map[string]string, patterns string) {
	copied := make(map[string]string, len(abbrevs))
	for language, abbrev := range abbrevs {
		copied[language] = abbrev
	}
	s.data.Abbrevs[name] = &abbrevEntry{computed: true, abbrevs: copied, patterns: patterns}
}
