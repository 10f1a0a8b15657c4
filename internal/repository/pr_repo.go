package repository

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/gateway"
	"github.com/Divoolej/prtrade/internal/models"
)

// Ключ singleflight: снапшот один на хранилище.
const snapshotKey = "pull_requests"

// PullRequestRepository — кеш обмениваемых Pull Request поверх выбранного
// бэкенда. Холодный кеш наполняется из внешнего источника ровно один раз
// даже при конкурентных читателях; мутации сериализуются мьютексом.
type PullRequestRepository struct {
	cache   SnapshotCache
	fetcher gateway.Fetcher
	owner   string

	// mu сериализует цикл "прочитать снапшот — изменить — записать".
	mu    sync.Mutex
	group singleflight.Group
}

// NewPullRequestRepository связывает репозиторий с бэкендом кеша и шлюзом.
func NewPullRequestRepository(cache SnapshotCache, fetcher gateway.Fetcher, owner string) *PullRequestRepository {
	return &PullRequestRepository{
		cache:   cache,
		fetcher: fetcher,
		owner:   owner,
	}
}

// PullRequests возвращает полный снапшот кеша. Холодный кеш перестраивается
// из внешнего источника; конкурентные вызовы ждут одну общую перестройку.
func (r *PullRequestRepository) PullRequests(ctx context.Context) (models.Snapshot, error) {
	snapshot, ok, err := r.cache.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if ok {
		return snapshot, nil
	}

	built, err, _ := r.group.Do(snapshotKey, func() (interface{}, error) {
		// Пока мы ждали свою очередь, снапшот мог построить другой вызов.
		snapshot, ok, err := r.cache.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if ok {
			return snapshot, nil
		}

		projects, err := r.fetcher.TradablePullRequests(ctx, r.owner)
		if err != nil {
			return nil, err
		}
		snapshot = models.Snapshot{r.owner: projects}
		if err := r.cache.Write(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("write snapshot: %w", err)
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	// Перестройку ждут сразу несколько вызовов, и все получают один и тот
	// же результат; отдаём каждому собственную копию, как на тёплом пути.
	return built.(models.Snapshot).Clone(), nil
}

// PullRequest возвращает запись по составному ключу. Отсутствие на любом
// уровне вложенности — это ErrNotFound, а не пустой результат.
func (r *PullRequestRepository) PullRequest(ctx context.Context, organization, project string, number int) (models.PullRequest, error) {
	snapshot, err := r.PullRequests(ctx)
	if err != nil {
		return models.PullRequest{}, err
	}
	projects, ok := snapshot[organization]
	if !ok {
		return models.PullRequest{}, domain.NewNotFoundError(organization, project, number)
	}
	pullRequests, ok := projects[project]
	if !ok {
		return models.PullRequest{}, domain.NewNotFoundError(organization, project, number)
	}
	pr, ok := pullRequests[number]
	if !ok {
		return models.PullRequest{}, domain.NewNotFoundError(organization, project, number)
	}
	return pr, nil
}

// Upsert вставляет или заменяет запись, создавая недостающие уровни.
func (r *PullRequestRepository) Upsert(ctx context.Context, organization, project string, pr models.PullRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot, err := r.PullRequests(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	if snapshot[organization] == nil {
		snapshot[organization] = make(map[string]map[int]models.PullRequest)
	}
	if snapshot[organization][project] == nil {
		snapshot[organization][project] = make(map[int]models.PullRequest)
	}
	snapshot[organization][project][pr.Number] = pr

	if err := r.cache.Write(ctx, snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Remove удаляет запись, если она есть. Удаление отсутствующей записи — no-op.
func (r *PullRequestRepository) Remove(ctx context.Context, organization, project string, number int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot, err := r.PullRequests(ctx)
	if err != nil {
		return err
	}
	pullRequests, ok := snapshot[organization][project]
	if !ok {
		return nil
	}
	if _, ok := pullRequests[number]; !ok {
		return nil
	}
	delete(pullRequests, number)

	if err := r.cache.Write(ctx, snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Invalidate сбрасывает материализованный снапшот; следующий читатель
// перестроит его из внешнего источника.
func (r *PullRequestRepository) Invalidate(ctx context.Context) error {
	if err := r.cache.Delete(ctx); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
