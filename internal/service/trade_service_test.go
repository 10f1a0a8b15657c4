package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/models"
)

func suggestionSnapshot() models.Snapshot {
	rbChanges := func(additions int) models.Changes {
		return models.Changes{
			FileTypes: map[string]models.FileTypeChanges{"rb": {Additions: additions}},
			Additions: additions,
			Commits:   3,
		}
	}
	return models.Snapshot{
		"acme": {
			"billing": {
				6: {Number: 6, Title: "reference", Changes: rbChanges(10)},
				9: {Number: 9, Title: "same project", Changes: rbChanges(10)},
			},
			"payments": {
				8: {Number: 8, Title: "mixed", Changes: models.Changes{
					FileTypes: map[string]models.FileTypeChanges{
						"js": {Additions: 1},
						"rb": {Additions: 40},
					},
					Additions: 41,
					Commits:   3,
				}},
				29: {Number: 29, Title: "close match", Changes: rbChanges(30)},
			},
			"web": {
				12: {Number: 12, Title: "large", Changes: rbChanges(50)},
				13: {Number: 13, Title: "assets only", Changes: models.Changes{
					FileTypes: map[string]models.FileTypeChanges{"png": {Additions: 0}},
					Additions: 0,
					Commits:   1,
				}},
			},
		},
	}
}

func snapshotStore(snapshot models.Snapshot) *mockPullRequestStore {
	return &mockPullRequestStore{
		pullRequestsFn: func(ctx context.Context) (models.Snapshot, error) {
			return snapshot, nil
		},
		pullRequestFn: func(ctx context.Context, organization, project string, number int) (models.PullRequest, error) {
			pr, ok := snapshot[organization][project][number]
			if !ok {
				return models.PullRequest{}, domain.NewNotFoundError(organization, project, number)
			}
			return pr, nil
		},
	}
}

func TestSuggest(t *testing.T) {
	snapshot := suggestionSnapshot()
	svc := NewTradeService(snapshotStore(snapshot), "acme", 5)
	reference := snapshot["acme"]["billing"][6]
	reference.Organization = "acme"
	reference.Project = "billing"

	t.Run("ranks candidates by similarity, sentinel last", func(t *testing.T) {
		suggested, err := svc.Suggest(testCtx, reference, 5)
		require.NoError(t, err)

		numbers := make([]int, 0, len(suggested))
		for _, pr := range suggested {
			numbers = append(numbers, pr.Number)
		}
		require.Equal(t, []int{29, 8, 12, 13}, numbers)
	})

	t.Run("never suggests the reference's own project", func(t *testing.T) {
		suggested, err := svc.Suggest(testCtx, reference, 10)
		require.NoError(t, err)
		for _, pr := range suggested {
			require.False(t, pr.Organization == "acme" && pr.Project == "billing")
		}
	})

	t.Run("result is bounded by the limit", func(t *testing.T) {
		suggested, err := svc.Suggest(testCtx, reference, 2)
		require.NoError(t, err)
		require.Len(t, suggested, 2)
		require.Equal(t, []int{29, 8}, []int{suggested[0].Number, suggested[1].Number})
	})

	t.Run("fewer candidates than limit returns all", func(t *testing.T) {
		suggested, err := svc.Suggest(testCtx, reference, 50)
		require.NoError(t, err)
		require.Len(t, suggested, 4)
	})

	t.Run("no candidates yields an empty sequence", func(t *testing.T) {
		lonely := models.Snapshot{"acme": {"billing": {6: reference}}}
		svc := NewTradeService(snapshotStore(lonely), "acme", 5)

		suggested, err := svc.Suggest(testCtx, reference, 5)
		require.NoError(t, err)
		require.Empty(t, suggested)
	})

	t.Run("candidates carry their organization and project", func(t *testing.T) {
		suggested, err := svc.Suggest(testCtx, reference, 1)
		require.NoError(t, err)
		require.Equal(t, "acme", suggested[0].Organization)
		require.Equal(t, "payments", suggested[0].Project)
	})
}

func TestListForProject(t *testing.T) {
	svc := NewTradeService(snapshotStore(suggestionSnapshot()), "acme", 5)

	t.Run("orders pull requests by number", func(t *testing.T) {
		listed, err := svc.ListForProject(testCtx, "acme", "billing")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		require.Equal(t, 6, listed[0].Number)
		require.Equal(t, 9, listed[1].Number)
		require.Equal(t, "billing", listed[0].Project)
	})

	t.Run("unknown project yields NO_PULL_REQUESTS", func(t *testing.T) {
		_, err := svc.ListForProject(testCtx, "acme", "ghost")
		require.ErrorIs(t, err, domain.ErrNoPullRequests)
	})

	t.Run("empty project yields NO_PULL_REQUESTS", func(t *testing.T) {
		empty := models.Snapshot{"acme": {"billing": {}}}
		svc := NewTradeService(snapshotStore(empty), "acme", 5)

		_, err := svc.ListForProject(testCtx, "acme", "billing")
		require.ErrorIs(t, err, domain.ErrNoPullRequests)
	})
}

func TestResolveCommand(t *testing.T) {
	svc := NewTradeService(snapshotStore(suggestionSnapshot()), "acme", 5)

	t.Run("project listing", func(t *testing.T) {
		result, err := svc.ResolveCommand(testCtx, "prtrade billing")
		require.NoError(t, err)
		require.Nil(t, result.Reference)
		require.Len(t, result.PullRequests, 2)
		require.Equal(t, "billing", result.Project)
	})

	t.Run("project and number", func(t *testing.T) {
		result, err := svc.ResolveCommand(testCtx, "prtrade billing 6")
		require.NoError(t, err)
		require.NotNil(t, result.Reference)
		require.Equal(t, 6, result.Reference.Number)
		require.NotEmpty(t, result.PullRequests)
	})

	t.Run("slack wrapped pull request url", func(t *testing.T) {
		result, err := svc.ResolveCommand(testCtx, "prtrade <https://github.com/acme/billing/pull/6>")
		require.NoError(t, err)
		require.NotNil(t, result.Reference)
		require.Equal(t, "acme", result.Organization)
		require.Equal(t, "billing", result.Project)
	})

	t.Run("url without pull segment", func(t *testing.T) {
		_, err := svc.ResolveCommand(testCtx, "prtrade <https://github.com/acme/billing>")
		require.ErrorIs(t, err, domain.ErrInvalidPRURL)
	})

	t.Run("unknown pull request", func(t *testing.T) {
		_, err := svc.ResolveCommand(testCtx, "prtrade billing 404")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed requests", func(t *testing.T) {
		for _, text := range []string{"prtrade", "prtrade a b c", "prtrade billing six", ""} {
			_, err := svc.ResolveCommand(testCtx, text)
			require.ErrorIs(t, err, domain.ErrInvalidRequest, "text: %q", text)
		}
	})
}
