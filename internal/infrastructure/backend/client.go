// Package backend is the HTTP client for the external JuthWorks API. All
// business logic (credential checks, quote calculation, persistence) lives on
// the other side of this client; methods here translate one call into one
// request and hand the response back, attaching the sanitised bearer token on
// every authenticated call.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/api/metrics"
	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
)

const requestTimeout = 20 * time.Second

// Client implements ports.BackendClient over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.BackendClient = (*Client)(nil)

// New creates a Client for the given base URL (e.g. http://localhost:5000).
func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// errorEnvelope is the backend's canonical error body.
type errorEnvelope struct {
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	PasswordErrors []string `json:"passwordErrors"`
}

// do issues one JSON request. op is the stable operation name used for
// metrics (paths carry IDs and would explode label cardinality). A non-2xx
// reply is returned as *domain.BackendError, or *domain.PasswordPolicyError
// when the envelope lists password violations.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req, token)

	return c.send(req, op, out)
}

// authorize attaches the bearer token, sanitised on every use because the
// persistence layer has historically round-tripped tokens with stray quotes.
func (c *Client) authorize(req *http.Request, token string) {
	if clean := domain.SanitizeToken(token); clean != "" {
		req.Header.Set("Authorization", "Bearer "+clean)
	}
}

func (c *Client) send(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestErrors.WithLabelValues(op, "transport").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BackendRequestErrors.WithLabelValues(op, "read").Inc()
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.BackendRequestErrors.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
		return c.asError(op, resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) asError(op string, status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	c.log.Debug().Str("op", op).Int("status", status).Str("error", msg).Msg("backend call failed")
	if len(env.PasswordErrors) > 0 {
		return &domain.PasswordPolicyError{Message: msg, Errors: env.PasswordErrors}
	}
	return &domain.BackendError{Status: status, Message: msg}
}

// --- Auth ---

func (c *Client) Login(ctx context.Context, input ports.LoginInput) (*ports.AuthResult, error) {
	var resp struct {
		User  json.RawMessage `json:"user"`
		Token string          `json:"token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", "", input, &resp); err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(resp.User, &user); err != nil {
		return nil, fmt.Errorf("login: decode user: %w", err)
	}
	return &ports.AuthResult{User: &user, RawUser: resp.User, Token: resp.Token}, nil
}

func (c *Client) Register(ctx context.Context, input ports.RegisterInput) (*ports.RegisterResult, error) {
	var resp struct {
		NeedsVerification bool  `json:"needsVerification"`
		UserID            int64 `json:"userId"`
	}
	if err := c.do(ctx, "register", http.MethodPost, "/api/register", "", input, &resp); err != nil {
		return nil, err
	}
	return &ports.RegisterResult{NeedsVerification: resp.NeedsVerification, UserID: resp.UserID}, nil
}

func (c *Client) VerifyEmail(ctx context.Context, userID int64, code string) error {
	body := map[string]any{"userId": userID, "verificationCode": code}
	return c.do(ctx, "verify_email", http.MethodPost, "/api/verify-email", "", body, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, "forgot_password", http.MethodPost, "/api/forgot-password", "", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, userID int64, code, newPassword string) error {
	body := map[string]any{"userId": userID, "verificationCode": code, "newPassword": newPassword}
	return c.do(ctx, "reset_password", http.MethodPost, "/api/reset-password", "", body, nil)
}

// --- Current user ---

func (c *Client) UpdateOnboarding(ctx context.Context, token string, onboarded bool) error {
	body := map[string]bool{"onboarded": onboarded}
	return c.do(ctx, "update_onboarding", http.MethodPost, "/api/users/me/onboarding", token, body, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	return c.do(ctx, "delete_account", http.MethodDelete, "/api/users/me", token, nil, nil)
}

func (c *Client) UserRequests(ctx context.Context, token string, userID int64) (json.RawMessage, error) {
	return c.raw(ctx, "user_requests", token, fmt.Sprintf("/api/user-requests/%d", userID))
}

// --- Service catalogue ---

func (c *Client) Services(ctx context.Context, token string) (json.RawMessage, error) {
	return c.raw(ctx, "services", token, "/api/services")
}

func (c *Client) RequestService(ctx context.Context, token string, input ports.ServiceRequestInput) (*ports.ServiceRequestResult, error) {
	var resp map[string]json.Number
	if err := c.do(ctx, "request_service", http.MethodPost, "/api/request-service", token, input, &resp); err != nil {
		return nil, err
	}
	// The backend has answered with either key over time.
	for _, k := range []string{"solicitud_id", "solicitudId"} {
		if v, ok := resp[k]; ok {
			id, err := v.Int64()
			if err == nil {
				return &ports.ServiceRequestResult{SolicitudID: id}, nil
			}
		}
	}
	return &ports.ServiceRequestResult{}, nil
}

func (c *Client) UploadPhotos(ctx context.Context, token string, solicitudID int64, photos []ports.PhotoUpload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range photos {
		part, err := w.CreateFormFile("photos", p.Filename)
		if err != nil {
			return fmt.Errorf("upload_photos: %w", err)
		}
		if _, err := part.Write(p.Data); err != nil {
			return fmt.Errorf("upload_photos: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload_photos: %w", err)
	}

	path := fmt.Sprintf("/api/upload-photos/%d", solicitudID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("upload_photos: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req, token)
	return c.send(req, "upload_photos", nil)
}

// --- Admin ---

func (c *Client) Requests(ctx context.Context, token string) (json.RawMessage, error) {
	return c.raw(ctx, "admin_requests", token, "/api/admin/requests")
}

func (c *Client) NewRequests(ctx context.Context, token string) (json.RawMessage, error) {
	return c.raw(ctx, "admin_new_requests", token, "/api/admin/solicitudes-nuevas")
}

func (c *Client) PendingQuotes(ctx context.Context, token string) (json.RawMessage, error) {
	return c.raw(ctx, "admin_pending_quotes", token, "/api/admin/presupuestos-pendientes")
}

func (c *Client) SendQuote(ctx context.Context, token string, input ports.QuoteInput) error {
	return c.do(ctx, "admin_send_quote", http.MethodPost, "/api/admin/enviar-presupuesto", token, input, nil)
}

func (c *Client) ApproveQuote(ctx context.Context, token string, solicitudID int64, notes string) error {
	path := fmt.Sprintf("/api/admin/aprobar-presupuesto/%d", solicitudID)
	return c.do(ctx, "admin_approve_quote", http.MethodPost, path, token, map[string]string{"notas_admin": notes}, nil)
}

func (c *Client) RejectQuote(ctx context.Context, token string, solicitudID int64, notes string) error {
	path := fmt.Sprintf("/api/admin/rechazar-presupuesto/%d", solicitudID)
	return c.do(ctx, "admin_reject_quote", http.MethodPost, path, token, map[string]string{"notas_admin": notes}, nil)
}

// --- Comments ---

func (c *Client) Comments(ctx context.Context, token string, filter ports.CommentFilter) (json.RawMessage, error) {
	q := url.Values{}
	if filter.SearchTerm != "" {
		q.Set("searchTerm", filter.SearchTerm)
	}
	if filter.StartDate != "" {
		q.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("endDate", filter.EndDate)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	path := "/api/comments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.raw(ctx, "comments", token, path)
}

func (c *Client) CreateComment(ctx context.Context, token, text string, userID int64) (json.RawMessage, error) {
	body := map[string]any{"texto": text}
	if userID != 0 {
		body["usuario_id"] = userID
	}
	var out json.RawMessage
	if err := c.do(ctx, "comment_create", http.MethodPost, "/api/comments", token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateComment(ctx context.Context, token string, commentID int64, text string) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/api/comments/%d", commentID)
	if err := c.do(ctx, "comment_update", http.MethodPut, path, token, map[string]string{"texto": text}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteComment(ctx context.Context, token string, commentID int64) error {
	path := fmt.Sprintf("/api/comments/%d", commentID)
	return c.do(ctx, "comment_delete", http.MethodDelete, path, token, nil, nil)
}

// --- Payments ---

func (c *Client) ExchangeRate(ctx context.Context, token string) (json.RawMessage, error) {
	return c.raw(ctx, "exchange_rate", token, "/api/exchange-rate")
}

func (c *Client) ProcessPayment(ctx context.Context, token string, input ports.PaymentInput) error {
	return c.do(ctx, "payment", http.MethodPost, "/api/payment", token, input, nil)
}

// --- Support ---

func (c *Client) SendSupportMessage(ctx context.Context, token string, msg ports.SupportMessage) error {
	return c.do(ctx, "support", http.MethodPost, "/api/support", token, msg, nil)
}

// --- Health ---

// Ping reports backend reachability. Any HTTP status counts as reachable;
// only transport-level failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// raw issues a GET and returns the body verbatim: list shapes belong to the
// backend and reach the client unmodified.
func (c *Client) raw(ctx context.Context, op, token, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
