package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

// IdentityHTTPClient resolves identities against an external identity
// service exposing GET /me.
type IdentityHTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityHTTPClient(baseURL string, httpClient *http.Client) *IdentityHTTPClient {
	return &IdentityHTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type identityMeResponse struct {
	User  identityUser   `json:"user"`
	Roles []identityRole `json:"roles"`
}

type identityUser struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type identityRole struct {
	Name string `json:"name"`
}

func (c *IdentityHTTPClient) Resolve(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	if c.baseURL == "" {
		return domain.Identity{}, ErrInvalidInput
	}
	if userID == uuid.Nil {
		return domain.Identity{}, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("X-User-ID", userID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return domain.Identity{}, ErrUnauthenticated
	default:
		return domain.Identity{}, fmt.Errorf("identity service unexpected status: %d", resp.StatusCode)
	}

	var body identityMeResponse
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&body); err != nil {
		return domain.Identity{}, err
	}

	if body.User.ID == uuid.Nil {
		return domain.Identity{}, errors.New("identity response missing id")
	}

	// Roles are mutually exclusive; the first one this service knows wins.
	for _, role := range body.Roles {
		if candidate := domain.Role(role.Name); candidate.Valid() {
			return domain.Identity{ID: body.User.ID, Role: candidate}, nil
		}
	}
	return domain.Identity{}, ErrUnauthenticated
}

func DefaultIdentityHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}
