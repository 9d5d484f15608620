// Package images wraps the external image CDN's direct-upload API
// (Cloudflare-Images-style contract). The server never proxies image bytes;
// it hands the browser a short-lived upload URL and stores only the
// resulting image id.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// UploadURLTTL is how long a direct-upload URL stays valid.
const UploadURLTTL = 30 * time.Minute

// DirectUpload is a one-shot upload grant issued by the CDN.
type DirectUpload struct {
	ID        string `json:"id"`
	UploadURL string `json:"uploadURL"`
}

// Client talks to the image CDN account API.
type Client struct {
	BaseURL    string // e.g. https://api.cloudflare.com/client/v4
	AccountID  string
	APIToken   string
	HTTPClient *http.Client
}

func NewClient(baseURL, accountID, apiToken string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AccountID: accountID,
		APIToken:  apiToken,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type directUploadResponse struct {
	Success bool         `json:"success"`
	Result  DirectUpload `json:"result"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateDirectUploadURL asks the CDN for a direct-upload URL expiring in
// UploadURLTTL.
func (c *Client) CreateDirectUploadURL(ctx context.Context) (DirectUpload, error) {
	form := url.Values{}
	form.Set("expiry", time.Now().UTC().Add(UploadURLTTL).Format(time.RFC3339))
	form.Set("requireSignedURLs", strconv.FormatBool(false))

	endpoint := fmt.Sprintf("%s/accounts/%s/images/v2/direct_upload", c.BaseURL, c.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return DirectUpload{}, fmt.Errorf("building direct-upload request: %w", err)
	}
	req.URL.RawQuery = form.Encode()
	req.Header.Set("Authorization", "Bearer "+c.APIToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return DirectUpload{}, fmt.Errorf("requesting direct-upload url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return DirectUpload{}, fmt.Errorf("reading direct-upload response: %w", err)
	}

	var parsed directUploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return DirectUpload{}, fmt.Errorf("decoding direct-upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Success {
		msg := "unknown error"
		if len(parsed.Errors) > 0 {
			msg = parsed.Errors[0].Message
		}
		return DirectUpload{}, fmt.Errorf("image cdn returned %d: %s", resp.StatusCode, msg)
	}

	return parsed.Result, nil
}
