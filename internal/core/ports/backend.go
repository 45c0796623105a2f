package ports

import (
	"context"
	"encoding/json"

	"github.com/juthworks/webapp/internal/core/domain"
)

// The interfaces below are the gateway's contract with the external JuthWorks
// backend API. Every business rule (credential checks, quote calculation,
// persistence) lives behind them; the gateway only orchestrates calls and
// passes payloads through. List-shaped data is therefore json.RawMessage:
// the backend's shapes reach the client unmodified.

// LoginInput carries the login form fields.
type LoginInput struct {
	Username string `json:"usuario"`
	Password string `json:"contrasena"`
	UserType string `json:"tipo_usuario,omitempty"`
}

// AuthResult is a successful login: the typed user for gating decisions plus
// the backend's raw record for storage, and the bearer token.
type AuthResult struct {
	User    *domain.User
	RawUser json.RawMessage
	Token   string
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	NationalID     string `json:"cedula"`
	FirstName      string `json:"primer_nombre"`
	MiddleName     string `json:"segundo_nombre,omitempty"`
	LastName       string `json:"primer_apellido"`
	SecondLastName string `json:"segundo_apellido,omitempty"`
	Email          string `json:"email"`
	Phone          string `json:"telefono,omitempty"`
	Address        string `json:"direccion,omitempty"`
	Username       string `json:"usuario"`
	Password       string `json:"contrasena"`
	UserType       string `json:"tipo_usuario,omitempty"`
}

// RegisterResult tells the caller where to send the new user next.
type RegisterResult struct {
	NeedsVerification bool
	UserID            int64
}

// AuthAPI covers the unauthenticated account endpoints.
type AuthAPI interface {
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, userID int64, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, userID int64, code, newPassword string) error
}

// UserAPI covers the authenticated endpoints on the current account.
// UpdateOnboarding must be safe to repeat with the same value.
type UserAPI interface {
	UpdateOnboarding(ctx context.Context, token string, onboarded bool) error
	DeleteAccount(ctx context.Context, token string) error
	UserRequests(ctx context.Context, token string, userID int64) (json.RawMessage, error)
}

// ServiceRequestInput describes a new service request.
type ServiceRequestInput struct {
	ServiceID   int64  `json:"servicio_id"`
	Description string `json:"descripcion"`
	Address     string `json:"direccion,omitempty"`
	Urgency     string `json:"urgencia,omitempty"`
}

// ServiceRequestResult identifies the request the backend created.
type ServiceRequestResult struct {
	SolicitudID int64
}

// PhotoUpload is one photo attached to a service request.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CatalogAPI covers the service catalogue and request creation.
type CatalogAPI interface {
	Services(ctx context.Context, token string) (json.RawMessage, error)
	RequestService(ctx context.Context, token string, input ServiceRequestInput) (*ServiceRequestResult, error)
	UploadPhotos(ctx context.Context, token string, solicitudID int64, photos []PhotoUpload) error
}

// QuoteInput carries an admin's estimate for a request.
type QuoteInput struct {
	SolicitudID int64   `json:"solicitud_id"`
	Price       float64 `json:"precio_estimado"`
	AdminNotes  string  `json:"notas_admin"`
}

// AdminAPI covers the triage endpoints restricted to administrators.
type AdminAPI interface {
	Requests(ctx context.Context, token string) (json.RawMessage, error)
	NewRequests(ctx context.Context, token string) (json.RawMessage, error)
	PendingQuotes(ctx context.Context, token string) (json.RawMessage, error)
	SendQuote(ctx context.Context, token string, input QuoteInput) error
	ApproveQuote(ctx context.Context, token string, solicitudID int64, notes string) error
	RejectQuote(ctx context.Context, token string, solicitudID int64, notes string) error
}

// CommentFilter narrows a comment listing. Zero values mean "no filter".
type CommentFilter struct {
	SearchTerm string
	StartDate  string
	EndDate    string
	Limit      int
}

// CommentsAPI covers the public comment board.
type CommentsAPI interface {
	Comments(ctx context.Context, token string, filter CommentFilter) (json.RawMessage, error)
	CreateComment(ctx context.Context, token, text string, userID int64) (json.RawMessage, error)
	UpdateComment(ctx context.Context, token string, commentID int64, text string) (json.RawMessage, error)
	DeleteComment(ctx context.Context, token string, commentID int64) error
}

// PaymentInput carries a payment submission for a quoted request.
type PaymentInput struct {
	SolicitudID int64   `json:"solicitud_id"`
	Amount      float64 `json:"monto"`
	Method      string  `json:"metodo_pago"`
	Currency    string  `json:"moneda,omitempty"`
	Reference   string  `json:"referencia,omitempty"`
}

// PaymentAPI covers the payment flow.
type PaymentAPI interface {
	ExchangeRate(ctx context.Context, token string) (json.RawMessage, error)
	ProcessPayment(ctx context.Context, token string, input PaymentInput) error
}

// SupportMessage is one message to the support inbox.
type SupportMessage struct {
	Subject string `json:"asunto"`
	Message string `json:"mensaje"`
	Email   string `json:"email,omitempty"`
}

// SupportAPI covers support messaging.
type SupportAPI interface {
	SendSupportMessage(ctx context.Context, token string, msg SupportMessage) error
}

// BackendClient is the full backend surface, implemented by the HTTP client
// in infrastructure/backend.
type BackendClient interface {
	AuthAPI
	UserAPI
	CatalogAPI
	AdminAPI
	CommentsAPI
	PaymentAPI
	SupportAPI

	// Ping reports whether the backend is reachable at all; any HTTP
	// response counts, only transport failures do not.
	Ping(ctx context.Context) error
}
