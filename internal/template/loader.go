package template

import (
	"bytes"
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// Parsed is a template document after placeholder substitution and parsing.
type Parsed struct {
	Name string
	Side Side
	Path string
	// JSON is the substituted document, normalized to JSON.
	JSON []byte
	// Value is the generic decoded form used for schema validation.
	Value any
}

// Loader reads template documents, resolves their placeholders and parses them.
type Loader struct {
	source Source
	engine *Engine
}

// NewLoader creates a loader over source.
func NewLoader(source Source) *Loader {
	return &Loader{source: source, engine: New()}
}

// Load reads the document of name and side, resolves placeholders and parses it.
//
// Placeholders are resolved on the raw text before any parsing, so a missing
// value surfaces as *api.MissingPlaceholderError rather than as a parse
// failure. Parse and shape failures are *api.TemplateMalformedError.
func (l *Loader) Load(name string, side Side, placeholders map[string]string) (*Parsed, error) {
	raw, err := l.source.Read(name, side)
	if err != nil {
		return nil, err
	}

	text, err := l.engine.Resolve(string(raw.Data), placeholders)
	if err != nil {
		return nil, err
	}

	return l.parse(name, side, raw, []byte(text))
}

// LoadPair loads both documents of a template. Missing placeholders of both
// documents are reported together before either document is parsed.
func (l *Loader) LoadPair(name string, placeholders map[string]string) (*RemoteDocument, *LocalTemplate, error) {
	remoteRaw, err := l.source.Read(name, SideRemote)
	if err != nil {
		return nil, nil, err
	}
	localRaw, err := l.source.Read(name, SideLocal)
	if err != nil {
		return nil, nil, err
	}

	remoteText, remoteErr := l.engine.Resolve(string(remoteRaw.Data), placeholders)
	localText, localErr := l.engine.Resolve(string(localRaw.Data), placeholders)
	if remoteErr != nil || localErr != nil {
		return nil, nil, mergeMissing(remoteErr, localErr)
	}

	remoteParsed, err := l.parse(name, SideRemote, remoteRaw, []byte(remoteText))
	if err != nil {
		return nil, nil, err
	}
	localParsed, err := l.parse(name, SideLocal, localRaw, []byte(localText))
	if err != nil {
		return nil, nil, err
	}

	remoteDoc, err := DecodeRemote(remoteParsed)
	if err != nil {
		return nil, nil, err
	}
	localDoc, err := DecodeLocal(localParsed)
	if err != nil {
		return nil, nil, err
	}

	logging.Debug("Template", "Loaded template %s: %d remote items, %d local tasks",
		name, len(remoteDoc.Items), len(localDoc.Tasks))
	return remoteDoc, localDoc, nil
}

// LoadRemote loads and decodes the remote-side document.
func (l *Loader) LoadRemote(name string, placeholders map[string]string) (*RemoteDocument, error) {
	parsed, err := l.Load(name, SideRemote, placeholders)
	if err != nil {
		return nil, err
	}
	return DecodeRemote(parsed)
}

// LoadLocal loads and decodes the local-side document.
func (l *Loader) LoadLocal(name string, placeholders map[string]string) (*LocalTemplate, error) {
	parsed, err := l.Load(name, SideLocal, placeholders)
	if err != nil {
		return nil, err
	}
	return DecodeLocal(parsed)
}

// Templates lists the template names available in the source.
func (l *Loader) Templates() ([]string, error) {
	return l.source.List()
}

func (l *Loader) parse(name string, side Side, raw RawDocument, text []byte) (*Parsed, error) {
	malformed := func(reason string, err error) error {
		return &api.TemplateMalformedError{Name: name, Side: string(side), Reason: reason, Err: err}
	}

	data := text
	if raw.Format == FormatYAML {
		converted, err := yaml.YAMLToJSON(text)
		if err != nil {
			return nil, malformed("invalid YAML", err)
		}
		data = converted
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, malformed("invalid JSON", err)
	}

	if err := validateShape(side, value); err != nil {
		return nil, malformed("schema validation failed", err)
	}

	return &Parsed{Name: name, Side: side, Path: raw.Path, JSON: data, Value: value}, nil
}

// DecodeRemote converts a parsed remote-side document into typed items.
func DecodeRemote(p *Parsed) (*RemoteDocument, error) {
	doc, err := decodeRemote(p.JSON)
	if err != nil {
		return nil, &api.TemplateMalformedError{Name: p.Name, Side: string(p.Side), Err: err}
	}
	return doc, nil
}

// DecodeLocal converts a parsed local-side document into ordered task items.
func DecodeLocal(p *Parsed) (*LocalTemplate, error) {
	doc, err := decodeLocal(p.JSON)
	if err != nil {
		return nil, &api.TemplateMalformedError{Name: p.Name, Side: string(p.Side), Err: err}
	}
	return doc, nil
}

func mergeMissing(errs ...error) error {
	seen := make(map[string]bool)
	merged := &api.MissingPlaceholderError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var missing *api.MissingPlaceholderError
		if !errors.As(err, &missing) {
			return err
		}
		for _, token := range missing.Tokens {
			if !seen[token] {
				seen[token] = true
				merged.Tokens = append(merged.Tokens, token)
			}
		}
	}
	return merged
}
