package web

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Divoolej/prtrade/internal/models"
	"github.com/Divoolej/prtrade/internal/service"
)

const (
	titleMaxLength   = 35
	maxListedTypes   = 5
	attachmentColor  = "#000"
	commitWordSingle = "commit"
	commitWordPlural = "commits"
)

// slackResponse собирает стандартный ответ бота с вложениями.
func (s *Server) slackResponse(text string, attachments []models.SlackAttachment) models.SlackResponse {
	return models.SlackResponse{
		Username:    s.slackConf.BotName,
		Text:        text,
		IconEmoji:   s.slackConf.IconEmoji,
		Attachments: attachments,
	}
}

// listingResponse форматирует список всех обмениваемых PR проекта.
func (s *Server) listingResponse(result *service.TradeResult) models.SlackResponse {
	title := fmt.Sprintf("All tradable pull requests for *%s*:", result.Project)
	return s.slackResponse(title, []models.SlackAttachment{{
		Text:     formattedPullRequests(result.PullRequests),
		Color:    attachmentColor,
		MrkdwnIn: []string{"text"},
	}})
}

// suggestionsResponse форматирует предложения обмена для reference-PR.
func (s *Server) suggestionsResponse(result *service.TradeResult) models.SlackResponse {
	title := fmt.Sprintf("Suggested trades for %s:", pullRequestTitle(*result.Reference))
	return s.slackResponse(title, []models.SlackAttachment{{
		Text:     formattedPullRequests(result.PullRequests),
		Color:    attachmentColor,
		MrkdwnIn: []string{"text"},
	}})
}

// formattedPullRequests склеивает построчное описание PR.
func formattedPullRequests(pullRequests []models.PullRequest) string {
	lines := make([]string, 0, len(pullRequests))
	for _, pr := range pullRequests {
		lines = append(lines, pullRequestTitle(pr)+pullRequestChanges(pr))
	}
	return strings.Join(lines, "\n")
}

// pullRequestTitle — кликабельный заголовок вида <url|*project [#6]* - title>.
func pullRequestTitle(pr models.PullRequest) string {
	return fmt.Sprintf("<%s|*%s [#%d]* - %s>", pr.URL, pr.Project, pr.Number, truncate(pr.Title, titleMaxLength))
}

// pullRequestChanges — краткая сводка диффа с топом типов файлов по добавлениям.
func pullRequestChanges(pr models.PullRequest) string {
	commitWord := commitWordPlural
	if pr.Changes.Commits == 1 {
		commitWord = commitWordSingle
	}
	return fmt.Sprintf(
		" - _%d %s_ ( %d :heavy_plus_sign:, %d :heavy_minus_sign:) `[%s]`",
		pr.Changes.Commits,
		commitWord,
		pr.Changes.Additions,
		pr.Changes.Deletions,
		strings.Join(topFileTypes(pr.Changes), ", "),
	)
}

// topFileTypes возвращает до пяти типов файлов, отсортированных по убыванию добавлений.
func topFileTypes(changes models.Changes) []string {
	types := changes.FileTypeSet()
	sort.SliceStable(types, func(i, j int) bool {
		return changes.AdditionsForFileType(types[i]) > changes.AdditionsForFileType(types[j])
	})
	if len(types) > maxListedTypes {
		types = types[:maxListedTypes]
	}
	return types
}

// truncate обрезает строку до limit рун с многоточием, как это делает Rails.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
