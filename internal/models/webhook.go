package models

import "time"

// WebhookEvent — нормализованное событие жизненного цикла Pull Request,
// приходящее от GitHub. Поле label присутствует только у labeled/unlabeled.
type WebhookEvent struct {
	Action      string             `json:"action"`
	Label       *WebhookLabel      `json:"label,omitempty"`
	PullRequest WebhookPullRequest `json:"pull_request"`
}

// WebhookLabel — метка, фигурирующая в событии labeled/unlabeled.
type WebhookLabel struct {
	Name string `json:"name"`
}

// WebhookPullRequest — снимок Pull Request из тела вебхука.
// Разбивки изменений по типам файлов здесь нет: GitHub не кладёт её в
// событие, её дозапрашивают отдельным вызовом к API.
type WebhookPullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	User      Author    `json:"user"`
	UpdatedAt time.Time `json:"updated_at"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
	Commits   int       `json:"commits"`
}
