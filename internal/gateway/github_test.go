package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/models"
)

// newTestGateway поднимает фейковый GitHub API и направляет клиент на него.
func newTestGateway(t *testing.T, handler http.Handler) *GitHubGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	return &GitHubGateway{
		client:      client,
		reviewLabel: models.NewLabel("ready-for-review"),
	}
}

func TestFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "app/models/user.rb", want: "rb"},
		{filename: "src/index.JS", want: "js"},
		{filename: "archive.tar.gz", want: "gz"},
		{filename: "Makefile", want: "makefile"},
		{filename: ".gitignore", want: "gitignore"},
		{filename: "docs/README", want: "readme"},
		{filename: "config/locales/en.yml", want: "yml"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			require.Equal(t, tt.want, FileType(tt.filename))
		})
	}
}

func TestLabels(t *testing.T) {
	t.Run("returns normalized labels", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/billing/issues/6/labels", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"name": "Ready-For-Review"}, {"name": "bug"}]`)
		})
		gw := newTestGateway(t, mux)

		labels, err := gw.Labels(context.Background(), "acme", "billing", 6)

		require.NoError(t, err)
		require.Equal(t, []models.Label{"ready-for-review", "bug"}, labels)
	})

	t.Run("wraps transport failures", func(t *testing.T) {
		gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := gw.Labels(context.Background(), "acme", "billing", 6)

		require.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestFileTypeChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/billing/pulls/6/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"filename": "app/models/user.rb", "additions": 10, "deletions": 2},
			{"filename": "app/models/order.rb", "additions": 5, "deletions": 1},
			{"filename": "assets/app.js", "additions": 7, "deletions": 0},
			{"filename": "Makefile", "additions": 3, "deletions": 3}
		]`)
	})
	gw := newTestGateway(t, mux)

	fileTypes, err := gw.FileTypeChanges(context.Background(), "acme", "billing", 6)

	require.NoError(t, err)
	require.Equal(t, map[string]models.FileTypeChanges{
		"rb":       {Additions: 15, Deletions: 3},
		"js":       {Additions: 7, Deletions: 0},
		"makefile": {Additions: 3, Deletions: 3},
	}, fileTypes)
}

func TestTradablePullRequests(t *testing.T) {
	t.Run("builds the project map from labeled issues", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/orgs/acme/issues", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "all", r.URL.Query().Get("filter"))
			require.Equal(t, "ready-for-review", r.URL.Query().Get("labels"))
			fmt.Fprint(w, `[
				{"number": 6, "repository": {"name": "billing"}, "pull_request": {"url": "https://api.github.com/repos/acme/billing/pulls/6"}},
				{"number": 9, "repository": {"name": "payments"}, "pull_request": {"url": "https://api.github.com/repos/acme/payments/pulls/9"}},
				{"number": 77, "repository": {"name": "billing"}}
			]`)
		})
		mux.HandleFunc("/repos/acme/billing/pulls/6", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"number": 6,
				"title": "Pull Request 6 Title",
				"html_url": "https://github.com/acme/billing/pull/6",
				"user": {"login": "octocat", "html_url": "https://github.com/octocat"},
				"additions": 25,
				"deletions": 5,
				"commits": 3
			}`)
		})
		mux.HandleFunc("/repos/acme/billing/pulls/6/files", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"filename": "app.rb", "additions": 25, "deletions": 5}]`)
		})
		mux.HandleFunc("/repos/acme/payments/pulls/9", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"number": 9,
				"title": "Pull Request 9 Title",
				"html_url": "https://github.com/acme/payments/pull/9",
				"user": {"login": "hubot", "html_url": "https://github.com/hubot"},
				"additions": 1,
				"deletions": 1,
				"commits": 1
			}`)
		})
		mux.HandleFunc("/repos/acme/payments/pulls/9/files", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"filename": "main.go", "additions": 1, "deletions": 1}]`)
		})
		gw := newTestGateway(t, mux)

		projects, err := gw.TradablePullRequests(context.Background(), "acme")

		require.NoError(t, err)
		require.Len(t, projects, 2)

		billing := projects["billing"]
		require.Len(t, billing, 1) // issue 77 не является pull request
		pr := billing[6]
		require.Equal(t, "acme", pr.Organization)
		require.Equal(t, "billing", pr.Project)
		require.Equal(t, "Pull Request 6 Title", pr.Title)
		require.Equal(t, "https://github.com/acme/billing/pull/6", pr.URL)
		require.Equal(t, "octocat", pr.Author.Login)
		require.Equal(t, 25, pr.Changes.Additions)
		require.Equal(t, 3, pr.Changes.Commits)
		require.Equal(t, map[string]models.FileTypeChanges{"rb": {Additions: 25, Deletions: 5}}, pr.Changes.FileTypes)

		require.Contains(t, projects["payments"], 9)
	})

	t.Run("wraps listing failures", func(t *testing.T) {
		gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := gw.TradablePullRequests(context.Background(), "acme")

		require.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestNewGitHubGateway(t *testing.T) {
	gw, err := NewGitHubGateway("token", models.NewLabel("Ready-For-Review"))

	require.NoError(t, err)
	require.NotNil(t, gw.client)
	require.Equal(t, models.Label("ready-for-review"), gw.reviewLabel)
}
