// ABOUTME: Resource lookup by protocol://id URIs
// ABOUTME: Dispatches to providers registered per protocol

package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidURI       = errors.New("invalid resource uri")
	ErrInvalidQuery     = errors.New("invalid resource query")
	ErrListUnsupported  = errors.New("resource listing is not supported")
	ErrProviderNotFound = errors.New("resource provider not found")
	ErrNotFound         = errors.New("resource not found")
)

var protocolPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// URI is a parsed protocol://id reference.
type URI struct {
	Protocol string
	ID       string
	Query    url.Values
}

// Path is the protocol/id form used in responses.
func (u URI) Path() string {
	return u.Protocol + "/" + u.ID
}

// ParseURI splits raw into protocol and id. A query string after the id is
// parsed into Query. The id may be empty, which addresses the whole collection.
func ParseURI(raw string) (URI, error) {
	raw = strings.TrimSpace(raw)
	protocol, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q is not of the form protocol://id", ErrInvalidURI, raw)
	}
	if !protocolPattern.MatchString(protocol) {
		return URI{}, fmt.Errorf("%w: bad protocol %q", ErrInvalidURI, protocol)
	}

	id, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	id, err = url.PathUnescape(strings.Trim(id, "/"))
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	return URI{Protocol: protocol, ID: id, Query: query}, nil
}

// Provider serves one protocol.
type Provider interface {
	Get(ctx context.Context, id string, query url.Values) (any, error)
	List(ctx context.Context, query url.Values) ([]any, error)
}

// Result is either a single item or a list of contents. A listing always
// renders its contents array, even when empty.
type Result struct {
	Item     any
	Contents []any
	Path     string
}

type itemJSON struct {
	Item any    `json:"item"`
	Path string `json:"path"`
}

type listJSON struct {
	Contents []any  `json:"contents"`
	Path     string `json:"path"`
}

// MarshalJSON renders {item, path} for single items and {contents, path} for listings.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Contents != nil {
		return json.Marshal(listJSON{Contents: r.Contents, Path: r.Path})
	}
	return json.Marshal(itemJSON{Item: r.Item, Path: r.Path})
}

// Router maps protocols to providers.
type Router struct {
	providers map[string]Provider
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{providers: make(map[string]Provider)}
}

// Register adds a provider for protocol. It panics on duplicates, which is a
// wiring mistake.
func (r *Router) Register(protocol string, p Provider) *Router {
	if _, exists := r.providers[protocol]; exists {
		panic(fmt.Sprintf("resource provider %q registered twice", protocol))
	}
	r.providers[protocol] = p
	return r
}

// Protocols returns the registered protocols sorted.
func (r *Router) Protocols() []string {
	out := make([]string, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve parses raw and fetches the item, or the list when the id is empty.
// extra query values are merged under any given in the uri itself.
func (r *Router) Resolve(ctx context.Context, raw string, extra url.Values) (*Result, error) {
	uri, err := ParseURI(raw)
	if err != nil {
		return nil, err
	}
	for k, vs := range extra {
		if _, set := uri.Query[k]; !set {
			uri.Query[k] = vs
		}
	}

	p, ok := r.providers[uri.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, uri.Protocol)
	}

	if uri.ID == "" {
		items, err := p.List(ctx, uri.Query)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []any{}
		}
		return &Result{Contents: items, Path: uri.Path()}, nil
	}

	item, err := p.Get(ctx, uri.ID, uri.Query)
	if err != nil {
		return nil, err
	}
	return &Result{Item: item, Path: uri.Path()}, nil
}
