package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EnsureTenant makes sure the tenant exists, creating it when absent.
func (c *Client) EnsureTenant(ctx context.Context, tenant string) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/api/v2/tenants/"+tenant, nil)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return fmt.Errorf("failed to check tenant %s: %w", tenant, err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v2/tenants", map[string]any{"name": tenant}); err != nil {
		return fmt.Errorf("failed to create tenant %s: %w", tenant, err)
	}
	return nil
}

// EnsureDatabase makes sure the database exists under tenant, creating it
// when absent.
func (c *Client) EnsureDatabase(ctx context.Context, tenant, database string) error {
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s", tenant, database)
	_, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return fmt.Errorf("failed to check database %s: %w", database, err)
	}

	createPath := fmt.Sprintf("/api/v2/tenants/%s/databases", tenant)
	if _, err := c.doRequest(ctx, http.MethodPost, createPath, map[string]any{"name": database}); err != nil {
		return fmt.Errorf("failed to create database %s: %w", database, err)
	}
	return nil
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnsureCollection makes sure the named collection exists and returns its
// server-assigned id. Existing collections are found by listing the database
// and matching on name.
//
// Two processes provisioning the same name can both observe it missing and
// race the create. That window is accepted: the loser's create fails and the
// server's error is returned as is.
func (c *Client) EnsureCollection(ctx context.Context, tenant, database, name string) (string, error) {
	base := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections", tenant, database)

	respBody, err := c.doRequest(ctx, http.MethodGet, base, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list collections: %w", err)
	}

	var existing []collectionInfo
	if err := json.Unmarshal(respBody, &existing); err != nil {
		return "", fmt.Errorf("failed to decode collection listing: %w", err)
	}
	for _, col := range existing {
		if col.Name == name {
			return col.ID, nil
		}
	}

	respBody, err = c.doRequest(ctx, http.MethodPost, base, map[string]any{"name": name})
	if err != nil {
		return "", fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	var created collectionInfo
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("failed to decode created collection: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create collection %s returned no id", name)
	}
	return created.ID, nil
}
