package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/atinyakov/bizops/internal/client"
)

// Kind says whether an endpoint reads (query) or writes (mutation).
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Tag groups cached query results so a mutation can invalidate them together.
type Tag string

// Params fills {name} placeholders in an endpoint path.
type Params map[string]string

// Endpoint declares one named API operation.
type Endpoint struct {
	Name   string
	Method string
	// Path is relative to the base URL and may contain {param} placeholders.
	Path string
	Kind Kind
	// Auth sends the stored bearer token.
	Auth bool
	// Provides lists the tags a query's result is cached under.
	Provides []Tag
	// Invalidates lists the tags a successful mutation marks stale.
	Invalidates []Tag
	// OnSuccess and OnFailure run once per settled request.
	OnSuccess func(env *client.Envelope)
	OnFailure func()
}

func (e Endpoint) validate() error {
	switch {
	case e.Name == "":
		return fmt.Errorf("endpoint name is required")
	case e.Path == "":
		return fmt.Errorf("endpoint %s: path is required", e.Name)
	case e.Kind == KindQuery && len(e.Invalidates) > 0:
		return fmt.Errorf("endpoint %s: queries cannot invalidate tags", e.Name)
	case e.Kind == KindMutation && len(e.Provides) > 0:
		return fmt.Errorf("endpoint %s: mutations cannot provide tags", e.Name)
	}
	return nil
}

// Expand substitutes params into a templated path. Every placeholder must be
// supplied; values are path-escaped.
func Expand(path string, params Params) (string, error) {
	var b strings.Builder
	rest := path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", path)
		}
		name := rest[open+1 : open+end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing path param %q for %q", name, path)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[open+end+1:]
	}
}
