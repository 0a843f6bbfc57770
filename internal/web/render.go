package web

import (
	"embed"
	"html/template"
	"io"

	"dayblocks/internal/locale"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

type languageLink struct {
	Code    string
	Current bool
}

// LandingState is everything the landing page depends on besides the language.
type LandingState struct {
	Authenticated bool
	Email         string
	Today         string
	Timezone      string
	Supported     []string
}

type landingView struct {
	LandingState
	Lang      string
	Tr        *locale.Translator
	SignedIn  string
	Languages []languageLink
}

// RenderLanding writes the landing page. Signed-in sessions get the generate
// and log-out forms, everyone else gets the sign-in link.
func RenderLanding(w io.Writer, tr *locale.Translator, state LandingState) error {
	view := landingView{LandingState: state, Lang: tr.Lang, Tr: tr}
	if state.Authenticated {
		view.SignedIn = tr.T("signed_in")
		if state.Email != "" {
			view.SignedIn = tr.T("signed_in_as", map[string]any{"Email": state.Email})
		}
	}
	for _, code := range state.Supported {
		view.Languages = append(view.Languages, languageLink{Code: code, Current: code == tr.Lang})
	}
	return templates.ExecuteTemplate(w, "landing", view)
}

type messageView struct {
	Lang    string
	Tr      *locale.Translator
	Heading string
	Lines   []string
}

func renderMessage(w io.Writer, tr *locale.Translator, heading string, lines ...string) error {
	return templates.ExecuteTemplate(w, "message", messageView{Lang: tr.Lang, Tr: tr, Heading: heading, Lines: lines})
}
