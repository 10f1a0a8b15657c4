package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/models"
)

// TradeService отвечает на trade-команды: список PR проекта либо
// ранжированные предложения обмена для указанного PR.
type TradeService struct {
	store          PullRequestStore
	defaultOwner   string
	maxSuggestions int
}

// TradeResult — разобранная команда вместе с её результатом.
// Reference заполнен только для запроса предложений.
type TradeResult struct {
	Organization string
	Project      string
	Reference    *models.PullRequest
	PullRequests []models.PullRequest
}

// NewTradeService связывает сервис с кешем и настройками обмена.
func NewTradeService(store PullRequestStore, defaultOwner string, maxSuggestions int) *TradeService {
	return &TradeService{
		store:          store,
		defaultOwner:   defaultOwner,
		maxSuggestions: maxSuggestions,
	}
}

// ResolveCommand разбирает текст slash-команды и выполняет её.
// Формы: "prtrade <project>", "prtrade <project> <number>",
// "prtrade <pr-url>" (ссылка обёрнута Slack'ом в угловые скобки).
func (t *TradeService) ResolveCommand(ctx context.Context, text string) (*TradeResult, error) {
	words := strings.Fields(text)
	switch len(words) {
	case 2:
		if unwrapped, ok := unwrapSlackLink(words[1]); ok {
			organization, project, number, err := parsePullRequestURL(unwrapped)
			if err != nil {
				return nil, err
			}
			return t.suggestions(ctx, organization, project, number)
		}
		return t.listing(ctx, t.defaultOwner, words[1])
	case 3:
		number, err := strconv.Atoi(words[2])
		if err != nil {
			return nil, domain.NewInvalidRequestError(text)
		}
		return t.suggestions(ctx, t.defaultOwner, words[1], number)
	default:
		return nil, domain.NewInvalidRequestError(text)
	}
}

// ListForProject возвращает все обмениваемые PR проекта по возрастанию номера.
func (t *TradeService) ListForProject(ctx context.Context, organization, project string) ([]models.PullRequest, error) {
	snapshot, err := t.store.PullRequests(ctx)
	if err != nil {
		return nil, err
	}
	pullRequests := snapshot[organization][project]
	if len(pullRequests) == 0 {
		return nil, domain.NewNoPullRequestsError(organization, project)
	}

	numbers := make([]int, 0, len(pullRequests))
	for number := range pullRequests {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	ordered := make([]models.PullRequest, 0, len(numbers))
	for _, number := range numbers {
		pr := pullRequests[number]
		pr.Organization = organization
		pr.Project = project
		ordered = append(ordered, pr)
	}
	return ordered, nil
}

// Suggest ранжирует кандидатов из чужих проектов по похожести на reference.
// Кандидаты перебираются в детерминированном порядке (организации, проекты,
// номера по возрастанию), сортировка стабильная — это и есть tie-break.
func (t *TradeService) Suggest(ctx context.Context, reference models.PullRequest, limit int) ([]models.PullRequest, error) {
	snapshot, err := t.store.PullRequests(ctx)
	if err != nil {
		return nil, err
	}

	type scoredPullRequest struct {
		pr    models.PullRequest
		score float64
	}

	var candidates []scoredPullRequest
	for _, organization := range snapshot.Organizations() {
		projects := snapshot[organization]
		projectNames := make([]string, 0, len(projects))
		for project := range projects {
			projectNames = append(projectNames, project)
		}
		sort.Strings(projectNames)

		for _, project := range projectNames {
			if organization == reference.Organization && project == reference.Project {
				continue
			}
			pullRequests := projects[project]
			numbers := make([]int, 0, len(pullRequests))
			for number := range pullRequests {
				numbers = append(numbers, number)
			}
			sort.Ints(numbers)

			for _, number := range numbers {
				pr := pullRequests[number]
				pr.Organization = organization
				pr.Project = project
				candidates = append(candidates, scoredPullRequest{
					pr:    pr,
					score: SimilarityScore(reference.Changes, pr.Changes),
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit <= 0 {
		limit = t.maxSuggestions
	}
	if limit > len(candidates) {
		limit = len(candidates)
	}
	suggested := make([]models.PullRequest, 0, limit)
	for _, candidate := range candidates[:limit] {
		suggested = append(suggested, candidate.pr)
	}
	return suggested, nil
}

// listing выполняет команду "список PR проекта".
func (t *TradeService) listing(ctx context.Context, organization, project string) (*TradeResult, error) {
	pullRequests, err := t.ListForProject(ctx, organization, project)
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		Organization: organization,
		Project:      project,
		PullRequests: pullRequests,
	}, nil
}

// suggestions выполняет команду "предложить обмен для PR".
func (t *TradeService) suggestions(ctx context.Context, organization, project string, number int) (*TradeResult, error) {
	reference, err := t.store.PullRequest(ctx, organization, project, number)
	if err != nil {
		return nil, err
	}
	reference.Organization = organization
	reference.Project = project

	suggested, err := t.Suggest(ctx, reference, t.maxSuggestions)
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		Organization: organization,
		Project:      project,
		Reference:    &reference,
		PullRequests: suggested,
	}, nil
}

// unwrapSlackLink снимает угловые скобки Slack и сообщает, была ли это ссылка.
func unwrapSlackLink(word string) (string, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(word, "<"), ">")
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" {
		return "", false
	}
	return trimmed, true
}

// parsePullRequestURL извлекает организацию, проект и номер из ссылки вида
// https://github.com/{org}/{project}/pull/{number}.
func parsePullRequestURL(rawURL string) (string, string, int, error) {
	parts := strings.Split(strings.TrimSuffix(rawURL, "/"), "/")
	pullIdx := -1
	for i, part := range parts {
		if part == "pull" {
			pullIdx = i
		}
	}
	if pullIdx < 2 || pullIdx+1 >= len(parts) {
		return "", "", 0, domain.NewInvalidPRURLError(rawURL)
	}
	number, err := strconv.Atoi(parts[pullIdx+1])
	if err != nil {
		return "", "", 0, domain.NewInvalidPRURLError(rawURL)
	}
	return parts[pullIdx-2], parts[pullIdx-1], number, nil
}
