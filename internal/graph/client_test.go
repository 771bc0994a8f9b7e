package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListAppsFollowsPaging(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/deviceAppManagement/mobileApps", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value": [{"id": "3", "displayName": "Viewer"}]}`)
			return
		}
		fmt.Fprintf(w, `{
			"value": [
				{"id": "1", "displayName": "Reader", "version": "23.1.0"},
				{"id": "2", "displayName": "Reader", "version": "24.0.0"}
			],
			"@odata.nextLink": "%s/v1.0/deviceAppManagement/mobileApps?page=2"
		}`, serverURL)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	c := New(server.URL, server.Client(), func(r *http.Request) {})
	apps, err := c.ListApps(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)
	require.Equal(t, "Viewer", apps[2].DisplayName)
}

func TestListAppsSendsBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/deviceAppManagement/mobileApps", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"value": []}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, server.Client(), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer tok")
	})
	_, err := c.ListApps(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
}

func TestAPIErrorEnvelopeIsSurfaced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/deviceAppManagement/mobileApps", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": "Forbidden", "message": "missing scope"}}`, http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, server.Client(), func(r *http.Request) {})
	_, err := c.ListApps(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Forbidden")
	require.Contains(t, err.Error(), "missing scope")
}

func TestFindGroupByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/groups", func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("$filter")
		if filter == "displayName eq 'Helpdesk'" {
			fmt.Fprint(w, `{"value": [{"id": "g1", "displayName": "Helpdesk"}]}`)
			return
		}
		fmt.Fprint(w, `{"value": []}`)
	})
	mux.HandleFunc("GET /v1.0/groups/g1/members", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": [
			{"id": "u1", "displayName": "Jan Novak", "userPrincipalName": "jan@contoso.com"},
			{"id": "u2", "displayName": "Eva Svoboda", "userPrincipalName": "eva@contoso.com"}
		]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, server.Client(), func(r *http.Request) {})

	group, err := c.FindGroupByName(context.Background(), "Helpdesk")
	require.NoError(t, err)
	require.Equal(t, "g1", group.ID)

	members, err := c.ListGroupMembers(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "jan@contoso.com", members[0].UserPrincipalName)

	_, err = c.FindGroupByName(context.Background(), "Nonexistent")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestDeleteApp(t *testing.T) {
	var deleted []string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1.0/deviceAppManagement/mobileApps/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = append(deleted, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, server.Client(), func(r *http.Request) {})
	require.NoError(t, c.DeleteApp(context.Background(), "app-1"))
	require.Equal(t, []string{"app-1"}, deleted)
}
