package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// PartialImport posts a filtered realm document to the partialImport endpoint.
func (c *Client) PartialImport(ctx context.Context, realm string, payload map[string]any) (*model.ImportResult, error) {
	req, err := c.adminRequest(ctx)
	if err != nil {
		return nil, err
	}

	var result model.ImportResult
	resp, err := req.SetBody(payload).SetResult(&result).Post(c.adminURL(realm, "partialImport"))
	if err := checkResponse("partial_import", resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportSection posts a document to the per-resource import endpoint.
// The endpoint answers with an empty body on success.
func (c *Client) ImportSection(ctx context.Context, realm, resource string, payload map[string]any) error {
	req, err := c.adminRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := req.SetBody(payload).Post(c.adminURL(realm, resource+"/import"))
	return checkResponse("section_import", resp, err)
}

// LocalExport fetches the export payload of resource, optionally narrowed
// by a search string. The payload is returned undecoded.
func (c *Client) LocalExport(ctx context.Context, realm, resource, search string) (json.RawMessage, error) {
	req, err := c.adminRequest(ctx)
	if err != nil {
		return nil, err
	}
	if search != "" {
		req.SetQueryParam("search", search)
	}

	resp, err := req.Get(c.adminURL(realm, resource+"/localExport"))
	if err := checkResponse("local_export", resp, err); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("local export of %s: response is not JSON", resource)
	}
	return json.RawMessage(body), nil
}

// ServerExport asks Keycloak to write the export of resource to a file on
// its own disk. The payload never travels back to the console.
func (c *Client) ServerExport(ctx context.Context, realm, resource, search, fileName string, condensed bool) error {
	req, err := c.adminRequest(ctx)
	if err != nil {
		return err
	}

	params := map[string]string{
		"fileName":  fileName,
		"condensed": strconv.FormatBool(condensed),
	}
	if search != "" {
		params["search"] = search
	}

	resp, err := req.SetQueryParams(params).Get(c.adminURL(realm, resource+"/serverExport"))
	return checkResponse("server_export", resp, err)
}
