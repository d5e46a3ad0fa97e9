// Package locale persists the preferred display language of the client.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
)

// KeyPreferred is the storage key of the selected language code.
const KeyPreferred = "preferredLanguage"

type Language struct {
	Code string
	Name string
	Flag string
}

// Languages lists the supported languages. The first one is the default.
var Languages = []Language{
	{Code: "pt-BR", Name: "Português", Flag: "🇧🇷"},
	{Code: "en-US", Name: "English", Flag: "🇺🇸"},
	{Code: "es-ES", Name: "Español", Flag: "🇪🇸"},
}

func Default() Language { return Languages[0] }

// Lookup resolves a BCP 47 code in any letter case to a supported language.
func Lookup(code string) (Language, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	canonical := tag.String()
	for _, l := range Languages {
		if l.Code == canonical {
			return l, true
		}
	}
	return Language{}, false
}

// Storage is the subset of the client key/value storage the selector needs.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Selector reads and writes the preferred language.
type Selector struct {
	storage Storage
}

func NewSelector(storage Storage) *Selector {
	return &Selector{storage: storage}
}

// Current returns the stored language, or the default when none or an
// unsupported one is stored.
func (s *Selector) Current() (Language, error) {
	code, ok, err := s.storage.Get(KeyPreferred)
	if err != nil {
		return Default(), fmt.Errorf("read language: %w", err)
	}
	if !ok {
		return Default(), nil
	}
	if l, ok := Lookup(code); ok {
		return l, nil
	}
	return Default(), nil
}

// Select stores code as the preferred language. Unsupported codes are rejected.
func (s *Selector) Select(code string) (Language, error) {
	l, ok := Lookup(code)
	if !ok {
		return Language{}, fmt.Errorf("unsupported language %q", code)
	}
	if err := s.storage.Set(KeyPreferred, l.Code); err != nil {
		return Language{}, fmt.Errorf("save language: %w", err)
	}
	return l, nil
}
