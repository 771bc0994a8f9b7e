// Package compliance drives the vendor compliance endpoints: named
// asynchronous search jobs plus preview/purge actions attached to them.
package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
	baseclient "github.com/m365ops/m365ctl/internal/client"
)

// ErrNotFound marks a search or action the service does not know about.
var ErrNotFound = errors.New("not found")

// Compliance is the client interface the driver polls through. The search
// job lives on the server; the client only ever holds its name.
type Compliance interface {
	CreateSearch(ctx context.Context, search api.ComplianceSearch) error
	GetSearch(ctx context.Context, name string) (api.ComplianceSearch, error)
	StartSearch(ctx context.Context, name string) error
	CreateAction(ctx context.Context, searchName string, actionType api.ActionType, purgeType api.PurgeType) (api.SearchAction, error)
	GetAction(ctx context.Context, id string) (api.SearchAction, error)
}

var _ Compliance = (*restClient)(nil)

type restClient struct {
	server     string
	httpClient *http.Client
	authorize  func(*http.Request)
}

// NewFromSession builds a compliance client bound to an established session.
func NewFromSession(s *baseclient.Session) Compliance {
	return NewClient(s.ComplianceServer(), s.HTTPClient(), s.Authorize)
}

func NewClient(server string, httpClient *http.Client, authorize func(*http.Request)) Compliance {
	return &restClient{
		server:     server,
		httpClient: httpClient,
		authorize:  authorize,
	}
}

func (c *restClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%s %s failed: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *restClient) CreateSearch(ctx context.Context, search api.ComplianceSearch) error {
	return c.do(ctx, http.MethodPost, "/compliance/searches", search, nil)
}

func (c *restClient) GetSearch(ctx context.Context, name string) (api.ComplianceSearch, error) {
	var search api.ComplianceSearch
	err := c.do(ctx, http.MethodGet, "/compliance/searches/"+url.PathEscape(name), nil, &search)
	return search, err
}

func (c *restClient) StartSearch(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/compliance/searches/"+url.PathEscape(name)+"/start", nil, nil)
}

func (c *restClient) CreateAction(ctx context.Context, searchName string, actionType api.ActionType, purgeType api.PurgeType) (api.SearchAction, error) {
	in := api.SearchAction{
		SearchName: searchName,
		Type:       actionType,
		PurgeType:  purgeType,
	}
	var action api.SearchAction
	err := c.do(ctx, http.MethodPost, "/compliance/searches/"+url.PathEscape(searchName)+"/actions", in, &action)
	return action, err
}

func (c *restClient) GetAction(ctx context.Context, id string) (api.SearchAction, error) {
	var action api.SearchAction
	err := c.do(ctx, http.MethodGet, "/compliance/actions/"+url.PathEscape(id), nil, &action)
	return action, err
}
