package accounts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	Get(ctx context.Context, id int64) (domain.Customer, error)
	GetByUsername(ctx context.Context, username string) (domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c domain.Customer) error
	SetPassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Blacklist(ctx context.Context, jti string, customerID int64, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type ResetNotifier interface {
	PasswordResetRequested(ctx context.Context, event domain.PasswordResetEvent) (domain.NotificationStatus, error)
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	CustomerName    string `json:"customer_name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required,max=15"`
	Address         string `json:"address" validate:"required"`
	City            string `json:"city" validate:"required,max=100"`
	State           string `json:"state" validate:"required,max=100"`
	ProfilePicture  string `json:"profile_picture"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// UpdateRequest is a partial profile update; nil fields are left unchanged.
type UpdateRequest struct {
	Username        *string `json:"username" validate:"omitempty,min=1,max=150"`
	CustomerName    *string `json:"customer_name" validate:"omitempty,max=255"`
	Email           *string `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,max=15"`
	Address         *string `json:"address"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	State           *string `json:"state" validate:"omitempty,max=100"`
	ProfilePicture  *string `json:"profile_picture"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
}

type Config struct {
	FrontendURL   string
	NotifyTimeout time.Duration
	BcryptCost    int
}

type Service struct {
	store         Store
	tokens        *Tokens
	notifier      ResetNotifier
	validate      *validator.Validate
	frontendURL   string
	notifyTimeout time.Duration
	bcryptCost    int
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(store Store, tokens *Tokens, notifier ResetNotifier, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Service{
		store:         store,
		tokens:        tokens,
		notifier:      notifier,
		validate:      newValidator(),
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		notifyTimeout: cfg.NotifyTimeout,
		bcryptCost:    cfg.BcryptCost,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Customer{}, s.validationError(err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return domain.Customer{}, err
	}

	c := domain.Customer{
		Username:       req.Username,
		CustomerName:   req.CustomerName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		ProfilePicture: req.ProfilePicture,
		IsActive:       true,
		PasswordHash:   hash,
		CreatedAt:      s.now(),
	}
	if err := s.store.Create(ctx, &c); err != nil {
		return domain.Customer{}, err
	}

	s.logger.Info("customer registered", "user_id", c.ID, "username", c.Username)
	return c, nil
}

// Login checks credentials and returns a token pair. Unknown users, inactive
// accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	c, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}
	if !c.IsActive {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	if err := s.store.TouchLastLogin(ctx, c.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login", "error", err, "user_id", c.ID)
	}

	return s.tokens.IssuePair(c)
}

func (s *Service) refreshClaims(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, domain.ErrRefreshRequired
	}
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrInvalidRefreshToken
	}
	return claims, nil
}

// Refresh mints a new access token from the customer's current row. Missing
// or inactive accounts cannot refresh.
func (s *Service) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.refreshClaims(ctx, raw)
	if err != nil {
		return "", err
	}
	id, _ := claims.customerID()
	c, err := s.activeCustomer(ctx, id, domain.ErrInvalidRefreshToken)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(c)
}

// Logout revokes the refresh token. Access tokens stay valid until they
// expire.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.refreshClaims(ctx, raw)
	if err != nil {
		return err
	}
	id, _ := claims.customerID()
	if err := s.store.Blacklist(ctx, claims.ID, id, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info("customer logged out", "user_id", id)
	return nil
}

// Authenticate resolves a bearer access token against the customer's current
// row. Missing or inactive accounts are rejected and Staff comes from the row.
func (s *Service) Authenticate(ctx context.Context, raw string) (domain.Identity, error) {
	id, err := s.tokens.Authenticate(raw)
	if err != nil {
		return domain.Identity{}, err
	}
	c, err := s.activeCustomer(ctx, id.UserID, domain.ErrInvalidToken)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: c.ID, Staff: c.IsStaff}, nil
}

func (s *Service) activeCustomer(ctx context.Context, id int64, rejected error) (domain.Customer, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Customer{}, rejected
		}
		return domain.Customer{}, err
	}
	if !c.IsActive {
		return domain.Customer{}, rejected
	}
	return c, nil
}

func (s *Service) Profile(ctx context.Context, id domain.Identity) (domain.Customer, error) {
	return s.store.Get(ctx, id.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, id domain.Identity, req UpdateRequest) (domain.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Customer{}, s.validationError(err)
	}

	c, err := s.store.Get(ctx, id.UserID)
	if err != nil {
		return domain.Customer{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&c.Username, req.Username)
	apply(&c.CustomerName, req.CustomerName)
	apply(&c.Email, req.Email)
	apply(&c.PhoneNumber, req.PhoneNumber)
	apply(&c.Address, req.Address)
	apply(&c.City, req.City)
	apply(&c.State, req.State)
	apply(&c.ProfilePicture, req.ProfilePicture)

	if req.Password != nil {
		if req.ConfirmPassword == nil || *req.ConfirmPassword != *req.Password {
			return domain.Customer{}, domain.ErrPasswordMismatch
		}
		if *req.Password == "" {
			return domain.Customer{}, domain.ErrPasswordRequired
		}
		c.PasswordHash, err = s.hash(*req.Password)
		if err != nil {
			return domain.Customer{}, err
		}
	}

	if err := s.store.Update(ctx, c); err != nil {
		return domain.Customer{}, err
	}

	s.logger.Info("profile updated", "user_id", c.ID, "password_changed", req.Password != nil)
	return c, nil
}

// RequestPasswordReset emails a single-use reset link. Unlike order
// confirmations, a failed send is reported to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	c, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueReset(c)
	if err != nil {
		return err
	}

	event := domain.PasswordResetEvent{
		CustomerID: c.ID,
		Username:   c.Username,
		Email:      c.Email,
		ResetURL:   fmt.Sprintf("%s/reset-password/%s/%s/", s.frontendURL, encodeUID(c.ID), token),
		Timestamp:  s.now(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	status, err := s.notifier.PasswordResetRequested(ctx, event)
	if err != nil || status == domain.NotificationFailed {
		s.logger.Error("failed to send password reset", "error", err, "user_id", c.ID)
		return domain.ErrNotificationFailed
	}

	s.logger.Info("password reset requested", "user_id", c.ID, "notification", status)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, uid, token, password string) error {
	id, err := decodeUID(uid)
	if err != nil {
		return domain.ErrInvalidResetRequest
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidResetRequest
		}
		return err
	}

	if err := s.tokens.VerifyReset(token, c); err != nil {
		return err
	}
	if password == "" {
		return domain.ErrPasswordRequired
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.store.SetPassword(ctx, c.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset", "user_id", c.ID)
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.ErrInvalidCustomerInput
	}
	first := fieldErrs[0]
	if first.Tag() == "eqfield" {
		return domain.ErrPasswordMismatch
	}
	return domain.NewError(domain.KindInvalidArgument,
		fmt.Sprintf("%s: failed %q validation", first.Field(), first.Tag()))
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func encodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}
