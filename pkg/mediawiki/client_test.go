package mediawiki

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(ClientConfig{
		APIURL:     server.URL,
		HTTPClient: server.Client(),
	})
	return client, server
}

func TestPageExists(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		title := r.URL.Query().Get("titles")
		if title == "Acta Example" {
			fmt.Fprint(w, `{"query":{"pages":[{"title":"Acta Example"}]}}`)
			return
		}
		fmt.Fprint(w, `{"query":{"pages":[{"title":"`+title+`","missing":true}]}}`)
	})
	defer server.Close()

	exists, err := client.PageExists("Acta Example")
	if err != nil || !exists {
		t.Errorf("PageExists(existing) = %v, %v, want true", exists, err)
	}
	exists, err = client.PageExists("Acta Missing")
	if err != nil || exists {
		t.Errorf("PageExists(missing) = %v, %v, want false", exists, err)
	}
}

func TestPagesEmbeddingFollowsContinue(t *testing.T) {
	requests := 0
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("geicontinue") == "" {
			fmt.Fprint(w, `{
				"continue": {"geicontinue": "10|Next", "continue": "gapcontinue||"},
				"query": {"pages": [
					{"title": "Acta A", "revisions": [{"slots": {"main": {"content": "text A"}}}]}
				]}
			}`)
			return
		}
		fmt.Fprint(w, `{
			"query": {"pages": [
				{"title": "Acta B", "revisions": [{"slots": {"main": {"content": "text B"}}}]}
			]}
		}`)
	})
	defer server.Close()

	var visited []Page
	err := client.PagesEmbedding("Infobox journal", 10, func(p Page) error {
		visited = append(visited, p)
		return nil
	})
	if err != nil {
		t.Fatalf("PagesEmbedding failed: %v", err)
	}
	want := []Page{{Title: "Acta A", Text: "text A"}, {Title: "Acta B", Text: "text B"}}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visited pages mismatch (-want +got):\n%s", diff)
	}
	if requests != 2 {
		t.Errorf("made %d requests, want 2", requests)
	}
}

func TestPagesEmbeddingHonorsLimitAndStop(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"continue": {"geicontinue": "10|Next"},
			"query": {"pages": [
				{"title": "Acta A", "revisions": [{"slots": {"main": {"content": "a"}}}]},
				{"title": "Acta B", "revisions": [{"slots": {"main": {"content": "b"}}}]}
			]}
		}`)
	})
	defer server.Close()

	count := 0
	if err := client.PagesEmbedding("Infobox journal", 1, func(Page) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("PagesEmbedding failed: %v", err)
	}
	if count != 1 {
		t.Errorf("visited %d pages, want the limit of 1", count)
	}

	count = 0
	if err := client.PagesEmbedding("Infobox journal", 10, func(Page) error {
		count++
		return ErrStop
	}); err != nil {
		t.Fatalf("PagesEmbedding did not absorb ErrStop: %v", err)
	}
	if count != 1 {
		t.Errorf("visited %d pages after ErrStop, want 1", count)
	}
}

func TestRedirectsToPageExcludesTarget(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query": {"pages": [
				{"title": "Acta Example", "revisions": [{"slots": {"main": {"content": "the article"}}}]},
				{"title": "Acta Ex.", "revisions": [{"slots": {"main": {"content": "#REDIRECT [[Acta Example]]"}}}]}
			]}
		}`)
	})
	defer server.Close()

	redirects, err := client.RedirectsToPage("Acta Example", 100)
	if err != nil {
		t.Fatalf("RedirectsToPage failed: %v", err)
	}
	want := map[string]string{"Acta Ex.": "#REDIRECT [[Acta Example]]"}
	if diff := cmp.Diff(want, redirects); diff != "" {
		t.Errorf("redirects mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePageFetchesTokenAndSetsCreateOnly(t *testing.T) {
	var editForm map[string]string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"query":{"tokens":{"csrftoken":"token123+\\"}}}`)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		editForm = map[string]string{}
		for key := range r.PostForm {
			editForm[key] = r.PostForm.Get(key)
		}
		fmt.Fprint(w, `{"edit":{"result":"Success"}}`)
	})
	defer server.Close()

	if err := client.CreatePage("Acta Ex.", "#REDIRECT [[Acta Example]]", "summary"); err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if editForm["token"] != `token123+\` {
		t.Errorf("edit token = %q, want the fetched csrf token", editForm["token"])
	}
	if editForm["createonly"] != "1" || editForm["nocreate"] != "" {
		t.Errorf("edit form = %v, want createonly without nocreate", editForm)
	}
	if editForm["bot"] != "1" || editForm["watchlist"] != "nochange" {
		t.Errorf("edit form = %v, want bot flag and unchanged watchlist", editForm)
	}
}

func TestOverwritePageReportsAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"query":{"tokens":{"csrftoken":"t"}}}`)
			return
		}
		fmt.Fprint(w, `{"error":{"code":"missingtitle","info":"The page does not exist."}}`)
	})
	defer server.Close()

	err := client.OverwritePage("Acta Ex.", "text", "summary")
	if err == nil {
		t.Fatal("OverwritePage succeeded on an api error")
	}
}

func TestRateLimitedHTTPClientSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"pages":[{"title":"X","missing":true}]}}`)
	}))
	defer server.Close()

	limited := NewClient(ClientConfig{
		APIURL:     server.URL,
		HTTPClient: server.Client(),
		RateLimit:  50 * time.Millisecond,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := limited.PageExists("X"); err != nil {
			t.Fatalf("PageExists failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three requests took %v, want at least two rate-limit intervals", elapsed)
	}
}
