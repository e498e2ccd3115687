package backend

import (
	"context"
	"net/http"

	"bookdesk/models"
)

// Auth endpoints are public: no bearer credential is attached.

func (c *Client) RegisterUser(ctx context.Context, in models.UserRegistration) (*models.UserResponse, error) {
	var out models.UserResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/user", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterProvider(ctx context.Context, in models.ProviderRegistration) (*models.ProviderResponse, error) {
	var out models.ProviderResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/provider", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login performs the first login step. Users and providers get OTPRequired
// back and must call VerifyOTP; admins receive a token straight away.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, in models.OTPRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminStats(ctx context.Context, token string) (*models.AdminStats, error) {
	var out models.AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/summary-stats", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
