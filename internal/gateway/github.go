// Package gateway предоставляет шлюз к GitHub API — единственному внешнему
// источнику правды о Pull Request, их метках и диффах.
package gateway

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/models"
)

// Fetcher описывает операции чтения из внешнего источника.
type Fetcher interface {
	// Labels возвращает текущий набор меток Pull Request.
	Labels(ctx context.Context, organization, project string, number int) ([]models.Label, error)
	// FileTypeChanges возвращает дифф PR, сгруппированный по типам файлов.
	FileTypeChanges(ctx context.Context, organization, project string, number int) (map[string]models.FileTypeChanges, error)
	// TradablePullRequests возвращает все открытые PR организации с
	// ревью-лейблом: проект -> номер -> запись.
	TradablePullRequests(ctx context.Context, owner string) (map[string]map[int]models.PullRequest, error)
}

// GitHubGateway — реализация Fetcher поверх REST-клиента GitHub.
type GitHubGateway struct {
	client      *github.Client
	reviewLabel models.Label
}

// NewGitHubGateway создаёт клиент с oauth2-токеном и обработкой rate limit.
func NewGitHubGateway(token string, reviewLabel models.Label) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil)
	if err != nil {
		return nil, domain.NewTransportError("create rate limit waiter", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		client:      github.NewClient(httpClient),
		reviewLabel: reviewLabel,
	}, nil
}

// Labels возвращает все метки Pull Request, нормализованные к нижнему регистру.
func (g *GitHubGateway) Labels(ctx context.Context, organization, project string, number int) ([]models.Label, error) {
	opts := &github.ListOptions{PerPage: 100}
	var labels []models.Label
	for {
		page, resp, err := g.client.Issues.ListLabelsByIssue(ctx, organization, project, number, opts)
		if err != nil {
			return nil, domain.NewTransportError("list labels", err)
		}
		for _, label := range page {
			labels = append(labels, models.NewLabel(label.GetName()))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return labels, nil
}

// FileTypeChanges агрегирует изменённые файлы PR по типам файлов.
func (g *GitHubGateway) FileTypeChanges(ctx context.Context, organization, project string, number int) (map[string]models.FileTypeChanges, error) {
	opts := &github.ListOptions{PerPage: 100}
	fileTypes := make(map[string]models.FileTypeChanges)
	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, organization, project, number, opts)
		if err != nil {
			return nil, domain.NewTransportError("list pull request files", err)
		}
		for _, file := range files {
			fileType := FileType(file.GetFilename())
			changes := fileTypes[fileType]
			changes.Additions += file.GetAdditions()
			changes.Deletions += file.GetDeletions()
			fileTypes[fileType] = changes
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return fileTypes, nil
}

// TradablePullRequests строит полную карту обмениваемых PR организации.
// Идём через /issues: эндпоинт pull_requests у GitHub не фильтрует по
// меткам, а каждый PR технически является issue.
func (g *GitHubGateway) TradablePullRequests(ctx context.Context, owner string) (map[string]map[int]models.PullRequest, error) {
	opts := &github.IssueListOptions{
		Filter:      "all",
		Labels:      []string{g.reviewLabel.String()},
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	projects := make(map[string]map[int]models.PullRequest)
	for {
		issues, resp, err := g.client.Issues.ListByOrg(ctx, owner, opts)
		if err != nil {
			return nil, domain.NewTransportError("list organization issues", err)
		}
		for _, issue := range issues {
			if !issue.IsPullRequest() {
				continue
			}
			project := issue.GetRepository().GetName()
			record, err := g.pullRequestRecord(ctx, owner, project, issue.GetNumber())
			if err != nil {
				return nil, err
			}
			if projects[project] == nil {
				projects[project] = make(map[int]models.PullRequest)
			}
			projects[project][record.Number] = record
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return projects, nil
}

// pullRequestRecord собирает запись кеша из метаданных PR и его диффа.
func (g *GitHubGateway) pullRequestRecord(ctx context.Context, owner, project string, number int) (models.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, project, number)
	if err != nil {
		return models.PullRequest{}, domain.NewTransportError("get pull request", err)
	}
	fileTypes, err := g.FileTypeChanges(ctx, owner, project, number)
	if err != nil {
		return models.PullRequest{}, err
	}
	return models.PullRequest{
		Organization: owner,
		Project:      project,
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		URL:          pr.GetHTMLURL(),
		Author: models.Author{
			Login: pr.GetUser().GetLogin(),
			URL:   pr.GetUser().GetHTMLURL(),
		},
		UpdatedAt: pr.GetUpdatedAt().Time,
		Changes: models.Changes{
			FileTypes: fileTypes,
			Additions: pr.GetAdditions(),
			Deletions: pr.GetDeletions(),
			Commits:   pr.GetCommits(),
		},
	}, nil
}

// FileType возвращает тип файла: последнее расширение имени в нижнем
// регистре. Файл без расширения образует собственный тип.
func FileType(filename string) string {
	base := path.Base(filename)
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		return strings.ToLower(base[idx+1:])
	}
	return strings.ToLower(base)
}
