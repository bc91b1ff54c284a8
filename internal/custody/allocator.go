// Package custody talks to the external custody service that owns deposit keys.
package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
)

// Allocator provisions deposit addresses for networks without a node wallet.
type Allocator interface {
	Allocate(ctx context.Context, network domain.Network, username string) (string, error)
}

// HTTPAllocator calls POST {baseURL}/addresses.
type HTTPAllocator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAllocator returns allocator of the custody service at baseURL.
func NewHTTPAllocator(baseURL string, client *http.Client) *HTTPAllocator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &HTTPAllocator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type allocateRequest struct {
	Network  domain.Network `json:"network"`
	Username string         `json:"username"`
}

type allocateResponse struct {
	Address string `json:"address"`
}

// Allocate returns a new address of the network owned by the user.
func (a *HTTPAllocator) Allocate(ctx context.Context, network domain.Network, username string) (string, error) {
	body, err := json.Marshal(allocateRequest{Network: network, Username: username})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/addresses", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: custody: %v", domain.ErrExternalUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: custody: status %d", domain.ErrExternalUnavailable, res.StatusCode)
	}

	var out allocateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: custody: %v", domain.ErrExternalUnavailable, err)
	}

	if out.Address == "" {
		return "", fmt.Errorf("%w: custody returned empty address", domain.ErrExternalUnavailable)
	}

	return out.Address, nil
}
