package models

import (
	"sort"
	"time"
)

// PullRequest описывает запись о "обмениваемом" Pull Request в кеше.
// Организация, проект и номер образуют составной ключ записи.
type PullRequest struct {
	Organization string    `json:"organization"`
	Project      string    `json:"project"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	URL          string    `json:"html_url"`
	Author       Author    `json:"user"`
	UpdatedAt    time.Time `json:"updated_at"`
	Changes      Changes   `json:"changes"`
}

// Author идентифицирует автора Pull Request.
type Author struct {
	Login string `json:"login"`
	URL   string `json:"html_url"`
}

// FileTypeChanges хранит добавления и удаления для одного типа файлов.
type FileTypeChanges struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Changes — нормализованный профиль изменений Pull Request.
// Сумма добавлений по типам файлов может не совпадать с общим числом
// добавлений: источник отдаёт приблизительные данные, и это не ошибка.
type Changes struct {
	FileTypes map[string]FileTypeChanges `json:"file_types"`
	Additions int                        `json:"additions"`
	Deletions int                        `json:"deletions"`
	Commits   int                        `json:"commits"`
}

// FileTypeSet возвращает отсортированный список типов файлов профиля.
func (c Changes) FileTypeSet() []string {
	types := make([]string, 0, len(c.FileTypes))
	for fileType := range c.FileTypes {
		types = append(types, fileType)
	}
	sort.Strings(types)
	return types
}

// AdditionsForFileType возвращает число добавлений для типа файлов.
// Для отсутствующего типа это 0, а не ошибка.
func (c Changes) AdditionsForFileType(fileType string) int {
	return c.FileTypes[fileType].Additions
}

// Snapshot — полное содержимое кеша: организация -> проект -> номер PR -> запись.
type Snapshot map[string]map[string]map[int]PullRequest

// Clone копирует все три уровня вложенных отображений.
// Сами записи считаются неизменяемыми и не копируются.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	clone := make(Snapshot, len(s))
	for organization, projects := range s {
		clonedProjects := make(map[string]map[int]PullRequest, len(projects))
		for project, pullRequests := range projects {
			clonedPRs := make(map[int]PullRequest, len(pullRequests))
			for number, pr := range pullRequests {
				clonedPRs[number] = pr
			}
			clonedProjects[project] = clonedPRs
		}
		clone[organization] = clonedProjects
	}
	return clone
}

// Organizations возвращает организации снапшота в детерминированном порядке.
func (s Snapshot) Organizations() []string {
	organizations := make([]string, 0, len(s))
	for organization := range s {
		organizations = append(organizations, organization)
	}
	sort.Strings(organizations)
	return organizations
}
