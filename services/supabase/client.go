// Package supabase talks to the Supabase Auth (GoTrue) REST API.
package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

const (
	authPath = "/auth/v1"

	// banForever is how long a deactivated account stays banned (~100 years).
	banForever = "876000h"
	banNone    = "none"
)

type (
	Client struct {
		baseURL        string
		anonKey        string
		serviceRoleKey string
		rest           *rest.Client
	}

	// APIError is a non 2xx answer of the Auth API.
	APIError struct {
		StatusCode int
		Code       string
		Message    string
	}

	tokenResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
		User         user   `json:"user"`
	}

	user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	errorResponse struct {
		// GoTrue answers with either shape depending on its version.
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
	}
)

var _ perfil.AuthProvider = (*Client)(nil)

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase auth: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func NewClient(conf core.SupabaseConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:        conf.URL + authPath,
		anonKey:        conf.AnonKey,
		serviceRoleKey: conf.ServiceRoleKey,
		rest:           &rest.Client{HTTPClient: httpClient},
	}
}

func (c *Client) do(ctx context.Context, method rest.Method, path string, admin bool, query map[string]string, payload, dest interface{}) error {
	key := c.anonKey
	if admin {
		key = c.serviceRoleKey
	}
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{
			"apikey":        key,
			"Authorization": "Bearer " + key,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
		QueryParams: query,
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
	}

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	httpRes, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "calling %s %s", method, path)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s", method, path)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return newAPIError(res)
	}
	if dest != nil && res.Body != "" {
		if err := json.Unmarshal([]byte(res.Body), dest); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func newAPIError(res *rest.Response) *APIError {
	apiErr := &APIError{StatusCode: res.StatusCode, Message: res.Body}
	var body errorResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err == nil {
		switch {
		case body.ErrorCode != "":
			apiErr.Code, apiErr.Message = body.ErrorCode, body.Msg
		case body.Error != "":
			apiErr.Code, apiErr.Message = body.Error, body.ErrorDescription
		case body.Msg != "":
			apiErr.Message = body.Msg
		}
	}
	return apiErr
}

func (c *Client) token(ctx context.Context, grantType string, payload interface{}) (perfil.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, rest.Post, "/token", false, map[string]string{"grant_type": grantType}, payload, &tok)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
			return perfil.Session{}, perfil.ErrInvalidCredentials
		}
		return perfil.Session{}, err
	}
	return perfil.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		TokenType:    tok.TokenType,
		UserID:       tok.User.ID,
	}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (perfil.Session, error) {
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (perfil.Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) RecoverPassword(ctx context.Context, email, redirectTo string) error {
	var query map[string]string
	if redirectTo != "" {
		query = map[string]string{"redirect_to": redirectTo}
	}
	return c.do(ctx, rest.Post, "/recover", false, query, map[string]string{"email": email}, nil)
}

// CreateUser creates a confirmed auth user and returns its ID.
func (c *Client) CreateUser(ctx context.Context, email, password string, metadata map[string]interface{}) (string, error) {
	payload := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": metadata,
	}
	var u user
	if err := c.do(ctx, rest.Post, "/admin/users", true, nil, payload, &u); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return "", perfil.ErrEmailExists
		}
		return "", err
	}
	if u.ID == "" {
		return "", errors.New("supabase auth: created user without id")
	}
	return u.ID, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, upd perfil.AuthUserUpdate) error {
	payload := make(map[string]interface{})
	if upd.Password != "" {
		payload["password"] = upd.Password
	}
	if upd.Banned != nil {
		if *upd.Banned {
			payload["ban_duration"] = banForever
		} else {
			payload["ban_duration"] = banNone
		}
	}
	return c.do(ctx, rest.Put, "/admin/users/"+id, true, nil, payload, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/admin/users/"+id, true, nil, nil, nil)
}
