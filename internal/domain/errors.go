package domain

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки домена, используемые сервисами, репозиториями и веб-слоем.
var (
	ErrNotFound          = errors.New("NOT_FOUND")
	ErrNoPullRequests    = errors.New("NO_PULL_REQUESTS")
	ErrUnsupportedAction = errors.New("UNSUPPORTED_ACTION")
	ErrTransport         = errors.New("TRANSPORT_ERROR")
	ErrInvalidRequest    = errors.New("INVALID_REQUEST")
	ErrInvalidPRURL      = errors.New("INVALID_PR_URL")
	ErrMissingConfig     = errors.New("MISSING_CONFIG")
)

// NewNotFoundError возвращает ошибку отсутствия Pull Request в кеше.
func NewNotFoundError(organization, project string, number int) error {
	return fmt.Errorf("%w: pull request %s/%s#%d not found", ErrNotFound, organization, project, number)
}

// NewNoPullRequestsError сообщает, что в проекте нет ни одного PR с ревью-лейблом.
func NewNoPullRequestsError(organization, project string) error {
	return fmt.Errorf("%w: no pull requests for %s/%s", ErrNoPullRequests, organization, project)
}

// NewUnsupportedActionError используется, когда вебхук несёт неизвестное действие.
// Это постоянная ошибка классификации, повторять такой запрос бессмысленно.
func NewUnsupportedActionError(action string) error {
	return fmt.Errorf("%w: webhook action %q is not supported", ErrUnsupportedAction, action)
}

// NewTransportError оборачивает сбой обращения к внешнему источнику (GitHub API).
func NewTransportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
}

// NewInvalidRequestError сообщает о некорректном тексте trade-команды.
func NewInvalidRequestError(text string) error {
	return fmt.Errorf("%w: could not parse %q", ErrInvalidRequest, text)
}

// NewInvalidPRURLError возвращает ошибку разбора ссылки на Pull Request.
func NewInvalidPRURLError(url string) error {
	return fmt.Errorf("%w: %q is not a pull request url", ErrInvalidPRURL, url)
}

// NewMissingConfigError сообщает об отсутствующем обязательном параметре конфигурации.
func NewMissingConfigError(entry string) error {
	return fmt.Errorf("%w: %s is not configured", ErrMissingConfig, entry)
}
