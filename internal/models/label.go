package models

import "strings"

// Label — регистронезависимая метка GitHub. Используется только для
// сравнения с настроенным ревью-лейблом, нормализуется при создании.
type Label string

// NewLabel приводит имя метки к нижнему регистру.
func NewLabel(name string) Label {
	return Label(strings.ToLower(name))
}

// Equal сравнивает две нормализованные метки.
func (l Label) Equal(other Label) bool {
	return l == other
}

func (l Label) String() string {
	return string(l)
}
