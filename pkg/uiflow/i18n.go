package uiflow

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Localizer resolves target titles from message files.
// Message files may be TOML or JSON, named like "active.en.toml".
type Localizer struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	langs     []string
}

// NewLocalizer creates a Localizer with the given default language.
// langs lists preferred languages, most preferred first.
func NewLocalizer(defaultLang language.Tag, langs ...string) *Localizer {
	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if len(langs) == 0 {
		langs = []string{defaultLang.String()}
	}

	return &Localizer{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, langs...),
		langs:     langs,
	}
}

// LoadMessageFile adds the messages in path to the bundle.
func (l *Localizer) LoadMessageFile(path string) error {
	if _, err := l.bundle.LoadMessageFile(path); err != nil {
		return fmt.Errorf("load message file %s: %w", path, err)
	}
	l.refresh()
	return nil
}

// ParseMessageFileBytes adds messages from buf. path only names the format
// and language, e.g. "active.fr.toml".
func (l *Localizer) ParseMessageFileBytes(buf []byte, path string) error {
	if _, err := l.bundle.ParseMessageFileBytes(buf, path); err != nil {
		return fmt.Errorf("parse message file %s: %w", path, err)
	}
	l.refresh()
	return nil
}

// AddMessages adds messages for a language directly.
func (l *Localizer) AddMessages(tag language.Tag, messages ...*i18n.Message) error {
	if err := l.bundle.AddMessages(tag, messages...); err != nil {
		return fmt.Errorf("add messages for %s: %w", tag, err)
	}
	l.refresh()
	return nil
}

func (l *Localizer) refresh() {
	l.localizer = i18n.NewLocalizer(l.bundle, l.langs...)
}

// Title returns the localized title of a target, falling back to its
// name when there is no title key or no translation.
func (l *Localizer) Title(t Target) string {
	if t == nil {
		return ""
	}
	opts := t.options()
	if l == nil || opts.TitleKey == "" {
		return opts.Name
	}

	title, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: opts.TitleKey})
	if err != nil || title == "" {
		return opts.Name
	}
	return title
}
