// Package graph is a thin client over the tenant device-management and
// directory endpoints. Responses are reshaped into the flat records of
// api/v1alpha1; nothing is cached client-side.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
	baseclient "github.com/m365ops/m365ctl/internal/client"
)

type Client struct {
	server     string
	httpClient *http.Client
	authorize  func(*http.Request)
}

// NewFromSession builds a client bound to an established session.
func NewFromSession(s *baseclient.Session) *Client {
	return New(s.Server(), s.HTTPClient(), s.Authorize)
}

func New(server string, httpClient *http.Client, authorize func(*http.Request)) *Client {
	return &Client{
		server:     server,
		httpClient: httpClient,
		authorize:  authorize,
	}
}

// listResponse is the paging envelope every collection endpoint returns.
type listResponse struct {
	Value    json.RawMessage `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

type apiError struct {
	Err struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, u string) (*listResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	page := &listResponse{}
	if err := json.Unmarshal(body, page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return page, nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &apiError{}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Err.Message != "" {
		return fmt.Errorf("request failed: %d %s: %s", status, apiErr.Err.Code, apiErr.Err.Message)
	}
	return fmt.Errorf("request failed: %d", status)
}

// listAll follows @odata.nextLink until the collection is exhausted.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	next := c.server + path
	for next != "" {
		page, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		if len(page.Value) > 0 {
			var items []T
			if err := json.Unmarshal(page.Value, &items); err != nil {
				return nil, fmt.Errorf("decoding page: %w", err)
			}
			out = append(out, items...)
		}
		next = page.NextLink
	}
	return out, nil
}

// ListApps returns every mobile-app record held by the device management
// service.
func (c *Client) ListApps(ctx context.Context) ([]api.ManagedApp, error) {
	return listAll[api.ManagedApp](ctx, c, "/v1.0/deviceAppManagement/mobileApps")
}

// DeleteApp removes one app record by id.
func (c *Client) DeleteApp(ctx context.Context, id string) error {
	u := fmt.Sprintf("%s/v1.0/deviceAppManagement/mobileApps/%s", c.server, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, body)
	}
	return nil
}

// ListDevices returns every enrolled device record.
func (c *Client) ListDevices(ctx context.Context) ([]api.ManagedDevice, error) {
	return listAll[api.ManagedDevice](ctx, c, "/v1.0/deviceManagement/managedDevices")
}

// FindGroupByName resolves a directory group by its display name. A missing
// group is a precondition failure for the caller, not a transient error.
func (c *Client) FindGroupByName(ctx context.Context, name string) (api.Group, error) {
	path := "/v1.0/groups?$filter=" + url.QueryEscape(fmt.Sprintf("displayName eq '%s'", name))
	groups, err := listAll[api.Group](ctx, c, path)
	if err != nil {
		return api.Group{}, err
	}
	if len(groups) == 0 {
		return api.Group{}, fmt.Errorf("group %q not found", name)
	}
	return groups[0], nil
}

// ListGroupMembers returns the flattened membership of a group.
func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]api.GroupMember, error) {
	path := fmt.Sprintf("/v1.0/groups/%s/members", url.PathEscape(groupID))
	return listAll[api.GroupMember](ctx, c, path)
}
