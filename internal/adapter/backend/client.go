// Package backend is the HTTP client for the remote catalog and auth
// collaborator. Calls run through circuit breakers so a flapping backend
// degrades into fast failures instead of piled-up timeouts.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/patterns"
	"github.com/nextbyte/storefront/internal/port"
)

type Client struct {
	http           *resty.Client
	catalogCircuit *patterns.CircuitBreaker
	authCircuit    *patterns.CircuitBreaker
	catalogURL     string
	authURL        string
	jwtSecret      []byte
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func NewClient(catalogURL, authURL, jwtSecret string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(patterns.DefaultTimeout).
			SetRetryCount(0), // failures trip the breaker instead of retrying
		catalogCircuit: patterns.NewCircuitBreaker("Catalog", "storefront"),
		authCircuit:    patterns.NewCircuitBreaker("Auth", "storefront"),
		catalogURL:     catalogURL,
		authURL:        authURL,
		jwtSecret:      []byte(jwtSecret),
	}
}

// FetchProducts returns the priced catalog from the backend.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	result, err := c.catalogCircuit.Execute(func() (interface{}, error) {
		var products []domain.Product
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&products).
			Get(c.catalogURL + "/api/products")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
		}
		return products, nil
	})
	if err != nil {
		return nil, patterns.FormatError("Catalog", err)
	}

	return result.([]domain.Product), nil
}

// Authenticate verifies credentials against the auth service and returns
// the user id carried in the issued token's subject claim.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	result, err := c.authCircuit.Execute(func() (interface{}, error) {
		var login loginResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(loginRequest{Email: email, Password: password}).
			SetResult(&login).
			Post(c.authURL + "/api/auth/login")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return nil, port.ErrInvalidCredentials
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("auth returned status %d", resp.StatusCode())
		}
		return login.Token, nil
	})
	if err != nil {
		if errors.Is(err, port.ErrInvalidCredentials) {
			return "", err
		}
		return "", patterns.FormatError("Auth", err)
	}

	userID, err := c.subjectFromToken(result.(string))
	if err != nil {
		return "", fmt.Errorf("parse auth token: %w", err)
	}

	return userID, nil
}

func (c *Client) subjectFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("token has no subject")
	}

	return subject, nil
}
