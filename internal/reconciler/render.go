package reconciler

import (
	"fmt"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/ynput/ayon-jira/internal/template"
)

// DescriptionData is the data available to a description template.
type DescriptionData struct {
	Item     template.RemoteItem
	Scope    string
	Template string
}

// DescriptionRenderer produces the issue description sent to the tracker.
// A nil renderer returns the item description verbatim.
type DescriptionRenderer struct {
	tmpl *texttemplate.Template
}

// NewDescriptionRenderer parses text as a Go template with the sprig function
// set. An empty text yields a nil renderer.
func NewDescriptionRenderer(text string) (*DescriptionRenderer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tmpl, err := texttemplate.New("description").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid description template: %w", err)
	}
	return &DescriptionRenderer{tmpl: tmpl}, nil
}

// Render returns the description for data.
func (r *DescriptionRenderer) Render(data DescriptionData) (string, error) {
	if r == nil {
		return data.Item.Description, nil
	}
	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering description of %s: %w", data.Item.CustomID, err)
	}
	return b.String(), nil
}
