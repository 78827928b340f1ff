package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// ErrNoRefreshToken is returned when a 401 arrives and no refresh token is stored
var ErrNoRefreshToken = errors.New("no refresh token")

const refreshTimeout = 15 * time.Second

// refresh obtains a new access token. Concurrent callers share one call to the
// refresh endpoint; a caller whose token was already replaced gets the new one
// without another call.
func (c *Client) refresh(ctx context.Context, staleToken string) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		current, err := c.session.AccessToken(ctx)
		if err != nil {
			return "", err
		}
		if current != "" && current != staleToken {
			return current, nil
		}

		refreshToken, err := c.session.RefreshToken(ctx)
		if err != nil {
			return "", err
		}
		if refreshToken == "" {
			return "", ErrNoRefreshToken
		}

		// the refresh must outlive a cancelled caller since others may be waiting on it
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		tokens, err := c.requestRefresh(rctx, refreshToken)
		if err != nil {
			return "", err
		}
		if err := c.session.Rotate(rctx, tokens.Access, tokens.Refresh); err != nil {
			return "", err
		}
		c.logger.Info("Access token refreshed")
		return tokens.Access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// requestRefresh calls the refresh endpoint directly, bypassing the guards and
// the 401 handling of regular requests
func (c *Client) requestRefresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	payload, err := json.Marshal(models.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(c.refreshPath, nil), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(http.MethodPost, c.refreshPath, resp.StatusCode, body)
	}

	var tokens models.RefreshResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tokens.Access == "" {
		return nil, errors.New("refresh response has no access token")
	}
	return &tokens, nil
}
