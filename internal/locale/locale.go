// Package locale resolves the display language and looks up translated strings.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messageFiles embed.FS

// Catalog holds the translations for every supported language.
type Catalog struct {
	bundle   *i18n.Bundle
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// NewCatalog loads the embedded message files. fallback must be one of them.
func NewCatalog(fallback string) (*Catalog, error) {
	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback language %q: %w", fallback, err)
	}

	bundle := i18n.NewBundle(fallbackTag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.Glob(messageFiles, "messages/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list message files: %w", err)
	}
	var tags []language.Tag
	for _, name := range files {
		mf, err := bundle.LoadMessageFileFS(messageFiles, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path.Base(name), err)
		}
		tags = append(tags, mf.Tag)
	}

	c := &Catalog{bundle: bundle, fallback: fallbackTag}
	// The fallback goes first so the matcher prefers it on ties.
	c.tags = append(c.tags, fallbackTag)
	found := false
	for _, tag := range tags {
		if tag.String() == fallbackTag.String() {
			found = true
			continue
		}
		c.tags = append(c.tags, tag)
	}
	if !found {
		return nil, fmt.Errorf("no messages for fallback language %q", fallback)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Languages returns the supported language codes, fallback first.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.tags))
	for _, tag := range c.tags {
		out = append(out, tag.String())
	}
	return out
}

// Match returns the supported language closest to code.
func (c *Catalog) Match(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	_, idx, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return "", false
	}
	return c.tags[idx].String(), true
}

// Resolve picks the display language: the explicit code, then the remembered
// preference, then the Accept-Language header, then the fallback. Unsupported
// codes are skipped.
func (c *Catalog) Resolve(explicit, remembered, acceptLanguage string) string {
	for _, code := range []string{explicit, remembered} {
		if lang, ok := c.Match(code); ok {
			return lang
		}
	}
	if acceptLanguage != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(prefs) > 0 {
			_, idx, confidence := c.matcher.Match(prefs...)
			if confidence != language.No {
				return c.tags[idx].String()
			}
		}
	}
	return c.fallback.String()
}

// Translator returns the string lookup for lang.
func (c *Catalog) Translator(lang string) *Translator {
	return &Translator{Lang: lang, localizer: i18n.NewLocalizer(c.bundle, lang, c.fallback.String())}
}

// Translator looks up strings for one language.
type Translator struct {
	Lang      string
	localizer *i18n.Localizer
}

// T returns the translation of id. Missing ids render as the id itself.
func (t *Translator) T(id string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	msg, err := t.localizer.Localize(cfg)
	if err != nil {
		return id
	}
	return msg
}
