package auth

import (
	"context"
	"strings"
	"time"
)

// Auther ties the user repository, password hasher and token service
// together. It holds no per-request state.
type Auther struct {
	users          UserRepository
	tokens         *TokenService
	tokenValidator TokenValidator
	credentials    *CredentialIssuer
	hasher         *PasswordHasher
	logger         Logger
	activitySink   ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users UserRepository, tokens *TokenService) *Auther {
	return &Auther{
		users:          users,
		tokens:         tokens,
		tokenValidator: tokens,
		credentials:    NewCredentialIssuer(tokens),
		hasher:         NewPasswordHasher(),
		logger:         defLogger{},
		activitySink:   noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithPasswordHasher replaces the default bcrypt hasher
func (s *Auther) WithPasswordHasher(hasher *PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithTokenValidator sets the validator used for incoming tokens, e.g. a
// MultiTokenValidator that also accepts a retired key.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	if validator != nil {
		s.tokenValidator = validator
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Credentials returns the issuer for access and confirmation tokens
func (s *Auther) Credentials() *CredentialIssuer {
	return s.credentials
}

// Authenticate checks email and password. Unknown emails and wrong
// passwords fail with the same error.
func (s *Auther) Authenticate(ctx context.Context, email, password string) (UserRecord, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return UserRecord{}, ErrEmptyCredential
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if IsUserNotFound(err) {
			s.logger.Debug("Authenticate unknown user")
			s.hasher.VerifyAbsent(ctx, password)
			return UserRecord{}, ErrInvalidCredentials
		}
		s.logger.Error("Authenticate find user error", "error", err)
		return UserRecord{}, err
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return UserRecord{}, ErrInvalidCredentials
	}

	if !user.Confirmed {
		return UserRecord{}, ErrUnconfirmedAccount
	}

	return user, nil
}

func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", err)
		return "", err
	}

	token, err := s.credentials.IssueAccessToken(user.Email)
	if err != nil {
		s.logger.Error("Login failed to issue access token", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromRecord(user), user.ID.String(), err)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromRecord(user), user.ID.String(), nil)

	return token, nil
}

// IdentifyFromAccessToken resolves the user behind a bearer token
func (s *Auther) IdentifyFromAccessToken(ctx context.Context, token string) (UserRecord, error) {
	claims, err := s.tokenValidator.Validate(token, PurposeAccess)
	if err != nil {
		return UserRecord{}, err
	}

	return s.findTokenSubject(ctx, claims.Subject)
}

// ConfirmFromToken marks the user named by a confirmation token as
// confirmed. Confirming twice is not an error.
func (s *Auther) ConfirmFromToken(ctx context.Context, token string) error {
	claims, err := s.tokenValidator.Validate(token, PurposeConfirmation)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventConfirmFailure, ActorRef{Type: "unknown"}, "", err)
		return err
	}

	user, err := s.findTokenSubject(ctx, claims.Subject)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventConfirmFailure, ActorRef{Type: "unknown"}, "", err)
		return err
	}

	if err := s.users.MarkConfirmed(ctx, user.Email); err != nil {
		if IsUserNotFound(err) {
			err = ErrUserVanished
		}
		s.logger.Error("ConfirmFromToken mark confirmed error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventConfirmFailure, actorFromRecord(user), user.ID.String(), err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventConfirmSuccess, actorFromRecord(user), user.ID.String(), nil)

	return nil
}

// Register stores a new unconfirmed user and returns the confirmation
// token that has to reach them.
func (s *Auther) Register(ctx context.Context, email, password string) (UserRecord, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return UserRecord{}, "", ErrEmptyCredential
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return UserRecord{}, "", ErrUserExists
	} else if !IsUserNotFound(err) {
		s.logger.Error("Register find user error", "error", err)
		return UserRecord{}, "", err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return UserRecord{}, "", err
	}

	user, err := s.users.Insert(ctx, email, hash)
	if err != nil {
		s.logger.Error("Register insert user error", "error", err)
		return UserRecord{}, "", err
	}

	token, err := s.credentials.IssueConfirmationToken(user.Email)
	if err != nil {
		return UserRecord{}, "", err
	}

	s.emitAuthEvent(ctx, ActivityEventRegister, actorFromRecord(user), user.ID.String(), nil)

	return user, token, nil
}

// IssueAccessToken mints an access token without checking a password
func (s *Auther) IssueAccessToken(email string) (string, error) {
	return s.credentials.IssueAccessToken(email)
}

// IssueConfirmationToken mints a confirmation token for email
func (s *Auther) IssueConfirmationToken(email string) (string, error) {
	return s.credentials.IssueConfirmationToken(email)
}

func (s *Auther) findTokenSubject(ctx context.Context, email string) (UserRecord, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if IsUserNotFound(err) {
			return UserRecord{}, ErrUserVanished
		}
		return UserRecord{}, err
	}
	return user, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, cause error) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	}

	if cause != nil {
		event.Kind = ErrorKind(cause)
		event.Metadata["error"] = cause.Error()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func actorFromRecord(user UserRecord) ActorRef {
	if user.IsZero() {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
