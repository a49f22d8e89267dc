package aps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Derivative describes one 3D viewable produced by a successful translation.
type Derivative struct {
	ViewableID  string `json:"viewable_id"`
	Name        string `json:"name"`
	GUID        string `json:"guid"`
	Mime        string `json:"mime"`
	Status      string `json:"status"`
	URL         string `json:"svf_url"`
	ViewerURL   string `json:"loadmodel_url"`
	ManifestURL string `json:"manifest_url"`
}

// Resolution lists the viewables of a translated model.
// PrimaryURL is the viewer reference of the first match in manifest order.
type Resolution struct {
	URN         string       `json:"urn"`
	PrimaryURL  string       `json:"primary_svf_url"`
	Derivatives []Derivative `json:"all_derivatives"`
}

// Verification reports whether the primary derivative is reachable with the current token.
type Verification struct {
	URL         string       `json:"svf_url"`
	Accessible  bool         `json:"svf_accessible"`
	StatusCode  int          `json:"status_code"`
	Derivatives []Derivative `json:"all_derivatives"`
}

// Resolver locates viewable derivatives in a translation manifest.
// Nothing is cached; every call reads the manifest.
type Resolver struct {
	client     *client
	translator *Translator
	base       string
	format     string
	logger     *slog.Logger
}

func newResolver(cfg *Config, c *client, tr *Translator, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:     c,
		translator: tr,
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		format:     cfg.OutputFormat,
		logger:     logger,
	}
}

// Resolve reads the manifest for urn and builds access URLs for each 3D geometry viewable.
func (r *Resolver) Resolve(ctx context.Context, urn string) (*Resolution, error) {
	js, err := r.translator.Status(ctx, urn)
	if err != nil {
		var re *ResponseError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: no translation job for %s", ErrNotReady, urn)
		}
		return nil, err
	}

	if js.Status != StatusSuccess {
		return nil, fmt.Errorf("%w: status %s (%s)", ErrNotReady, js.Status, js.Progress)
	}

	res := &Resolution{URN: urn}

	for _, d := range js.Manifest.Derivatives {
		if !strings.EqualFold(d.OutputType, r.format) {
			continue
		}
		for _, child := range d.Children {
			if child.Role != "3d" || child.Type != "geometry" || child.ViewableID == "" {
				continue
			}
			res.Derivatives = append(res.Derivatives, r.derivative(urn, child))
		}
	}

	if len(res.Derivatives) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoViewable, urn)
	}

	res.PrimaryURL = res.Derivatives[0].ViewerURL

	r.logger.DebugContext(ctx, "derivatives resolved", "urn", urn, "count", len(res.Derivatives))
	return res, nil
}

// Verify resolves urn and issues an authorized HEAD against the first derivative.
func (r *Resolver) Verify(ctx context.Context, urn string) (*Verification, error) {
	res, err := r.Resolve(ctx, urn)
	if err != nil {
		return nil, err
	}

	primary := res.Derivatives[0]
	path := strings.TrimPrefix(primary.URL, r.base)

	status, _, err := r.client.call(ctx, http.MethodHead, path, nil)
	if err != nil {
		return nil, err
	}

	return &Verification{
		URL:         primary.URL,
		Accessible:  success(status),
		StatusCode:  status,
		Derivatives: res.Derivatives,
	}, nil
}

func (r *Resolver) derivative(urn string, node ManifestNode) Derivative {
	id := url.PathEscape(node.ViewableID)

	return Derivative{
		ViewableID:  node.ViewableID,
		Name:        node.Name,
		GUID:        node.GUID,
		Mime:        node.Mime,
		Status:      node.Status,
		URL:         r.base + "/derivativeservice/v2/derivatives/" + id,
		ViewerURL:   "urn:" + urn + "?viewableID=" + url.QueryEscape(node.ViewableID),
		ManifestURL: r.base + manifestPath(urn) + "/" + id,
	}
}
