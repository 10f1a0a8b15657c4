package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/gateway"
	"github.com/Divoolej/prtrade/internal/models"
)

// Action — конечный словарь действий вебхука, на которые реагирует кеш.
type Action string

const (
	ActionOpened      Action = "opened"
	ActionReopened    Action = "reopened"
	ActionClosed      Action = "closed"
	ActionLabeled     Action = "labeled"
	ActionUnlabeled   Action = "unlabeled"
	ActionSynchronize Action = "synchronize"
)

// PullRequestStore описывает операции кеша, нужные сервисам.
type PullRequestStore interface {
	PullRequests(ctx context.Context) (models.Snapshot, error)
	PullRequest(ctx context.Context, organization, project string, number int) (models.PullRequest, error)
	Upsert(ctx context.Context, organization, project string, pr models.PullRequest) error
	Remove(ctx context.Context, organization, project string, number int) error
	Invalidate(ctx context.Context) error
}

// CacheSyncService применяет события жизненного цикла PR к кешу.
// Инвариант: после любого события каждая запись кеша несёт ревью-лейбл.
type CacheSyncService struct {
	store       PullRequestStore
	fetcher     gateway.Fetcher
	reviewLabel models.Label
}

// NewCacheSyncService связывает синхронизатор с кешем и шлюзом GitHub.
func NewCacheSyncService(store PullRequestStore, fetcher gateway.Fetcher, reviewLabel models.Label) *CacheSyncService {
	return &CacheSyncService{
		store:       store,
		fetcher:     fetcher,
		reviewLabel: reviewLabel,
	}
}

// Apply классифицирует событие и выполняет переход кеша.
// Неизвестное действие — ErrUnsupportedAction; описанные в таблице
// переходов no-op'ы завершаются успешно. Действие классифицируется до
// разбора URL: событие с незнакомым действием отклоняется как
// неподдерживаемое даже при битом html_url.
func (s *CacheSyncService) Apply(ctx context.Context, event models.WebhookEvent) error {
	var react func(ctx context.Context, organization, project string, event models.WebhookEvent) error
	switch Action(event.Action) {
	case ActionOpened, ActionReopened:
		react = s.reactToReopened
	case ActionClosed:
		react = s.reactToClosed
	case ActionLabeled:
		react = s.reactToLabeled
	case ActionUnlabeled:
		react = s.reactToUnlabeled
	case ActionSynchronize:
		react = s.reactToSynchronize
	default:
		return domain.NewUnsupportedActionError(event.Action)
	}

	organization, project, err := organizationAndProject(event.PullRequest.HTMLURL)
	if err != nil {
		return err
	}
	return react(ctx, organization, project, event)
}

// reactToReopened добавляет PR, если он сейчас несёт ревью-лейбл.
// Для незнакомого кешу PR статус лейбла можно узнать только у источника.
func (s *CacheSyncService) reactToReopened(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	labels, err := s.fetcher.Labels(ctx, organization, project, event.PullRequest.Number)
	if err != nil {
		return err
	}
	if !containsLabel(labels, s.reviewLabel) {
		return nil
	}
	return s.upsertFreshRecord(ctx, organization, project, event)
}

// reactToClosed убирает PR из кеша; его присутствие в кеше — дешёвая
// замена проверки "всё ещё квалифицируется".
func (s *CacheSyncService) reactToClosed(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	exists, err := s.existsInCache(ctx, organization, project, event.PullRequest.Number)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.store.Remove(ctx, organization, project, event.PullRequest.Number)
}

// reactToLabeled добавляет PR, когда навешенная метка — ревью-лейбл.
func (s *CacheSyncService) reactToLabeled(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	if event.Label == nil || !models.NewLabel(event.Label.Name).Equal(s.reviewLabel) {
		return nil
	}
	return s.upsertFreshRecord(ctx, organization, project, event)
}

// reactToUnlabeled удаляет PR, когда с него сняли именно ревью-лейбл.
func (s *CacheSyncService) reactToUnlabeled(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	if event.Label == nil || !models.NewLabel(event.Label.Name).Equal(s.reviewLabel) {
		return nil
	}
	exists, err := s.existsInCache(ctx, organization, project, event.PullRequest.Number)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.store.Remove(ctx, organization, project, event.PullRequest.Number)
}

// reactToSynchronize обновляет дифф уже известного кешу PR.
func (s *CacheSyncService) reactToSynchronize(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	exists, err := s.existsInCache(ctx, organization, project, event.PullRequest.Number)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.upsertFreshRecord(ctx, organization, project, event)
}

// upsertFreshRecord собирает полную запись из события и свежего диффа.
func (s *CacheSyncService) upsertFreshRecord(ctx context.Context, organization, project string, event models.WebhookEvent) error {
	fileTypes, err := s.fetcher.FileTypeChanges(ctx, organization, project, event.PullRequest.Number)
	if err != nil {
		return err
	}
	record := models.PullRequest{
		Organization: organization,
		Project:      project,
		Number:       event.PullRequest.Number,
		Title:        event.PullRequest.Title,
		URL:          event.PullRequest.HTMLURL,
		Author:       event.PullRequest.User,
		UpdatedAt:    event.PullRequest.UpdatedAt,
		Changes: models.Changes{
			FileTypes: fileTypes,
			Additions: event.PullRequest.Additions,
			Deletions: event.PullRequest.Deletions,
			Commits:   event.PullRequest.Commits,
		},
	}
	return s.store.Upsert(ctx, organization, project, record)
}

// existsInCache различает "записи нет" и сбой чтения кеша.
func (s *CacheSyncService) existsInCache(ctx context.Context, organization, project string, number int) (bool, error) {
	_, err := s.store.PullRequest(ctx, organization, project, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// containsLabel ищет ревью-лейбл среди меток PR.
func containsLabel(labels []models.Label, label models.Label) bool {
	for _, l := range labels {
		if l.Equal(label) {
			return true
		}
	}
	return false
}

// organizationAndProject извлекает владельца и проект из html_url PR,
// например https://github.com/acme/billing/pull/6 -> acme, billing.
func organizationAndProject(htmlURL string) (string, string, error) {
	parts := strings.Split(strings.TrimSuffix(htmlURL, "/"), "/")
	pullIdx := -1
	for i, part := range parts {
		if part == "pull" {
			pullIdx = i
		}
	}
	if pullIdx < 2 || pullIdx+1 >= len(parts) {
		return "", "", domain.NewInvalidPRURLError(htmlURL)
	}
	return parts[pullIdx-2], parts[pullIdx-1], nil
}
