// Package service implements the session orchestrator: login, token refresh
// with rotation, logout, access validation, and breach containment. It holds
// no cross-request state of its own; everything durable lives in the injected
// stores, so it is safe for concurrent use by many request workers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	blacklistdomain "rental-auth-service/internal/blacklist/domain"
	attemptdomain "rental-auth-service/internal/loginattempt/domain"
	refreshdomain "rental-auth-service/internal/refreshtoken/domain"
	refreshrepo "rental-auth-service/internal/refreshtoken/repository"
	"rental-auth-service/internal/security"
	"rental-auth-service/internal/telemetry"
	userdomain "rental-auth-service/internal/user/domain"
)

// Sentinel errors for the auth service. All are recoverable, caller-facing
// outcomes; store failures surface as ordinary wrapped errors and must not be
// conflated with these.
var (
	// ErrInvalidCredentials covers wrong password and unknown email alike, to
	// prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked means logins for the email are temporarily refused.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidToken means a malformed token or bad signature.
	ErrInvalidToken = security.ErrInvalidToken
	// ErrTokenExpired means a well-signed token past its expiry; callers may
	// offer the refresh path on it, never on ErrInvalidToken.
	ErrTokenExpired = security.ErrTokenExpired
	// ErrTokenRevoked means a cryptographically valid access token that was
	// blacklisted before its natural expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidRefreshToken means the refresh token is absent, expired, or
	// never existed. Callers get no more detail than that.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrTokenReuseDetected means an already-revoked refresh token was
	// presented again; every refresh token for that user has been revoked.
	// Callers should surface only a generic "please log in again".
	ErrTokenReuseDetected = errors.New("refresh token reuse detected; all sessions revoked")
	// ErrUserNotFound means a token verified cryptographically but its
	// subject no longer exists (or is no longer active).
	ErrUserNotFound = errors.New("user not found")
)

// AccountLockedError carries the retry-after hint for a locked account.
// errors.Is(err, ErrAccountLocked) matches it.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked; retry after %s", e.RetryAfter)
}

func (e *AccountLockedError) Is(target error) bool { return target == ErrAccountLocked }

// DeviceInfo is the request origin metadata persisted with refresh tokens and
// login attempts.
type DeviceInfo struct {
	IPAddress string
	UserAgent string
	Device    string
}

// TokenPair is an issued access/refresh pair. ExpiresIn is the access token
// lifetime in seconds. The access token is never persisted server-side; the
// refresh token is persisted only as a hash.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginResult is a successful login: the token pair plus the user with the
// password hash cleared.
type LoginResult struct {
	Pair TokenPair
	User *userdomain.User
}

// UserRepo is the minimal credential store needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// RefreshTokenRepo is the minimal refresh token store needed by the auth service.
type RefreshTokenRepo interface {
	Store(ctx context.Context, rec *refreshdomain.RefreshTokenRecord) error
	FindValid(ctx context.Context, tokenHash string) (*refreshdomain.RefreshTokenRecord, error)
	FindByHash(ctx context.Context, tokenHash string) (*refreshdomain.RefreshTokenRecord, error)
	ListActiveForUser(ctx context.Context, userID string) ([]*refreshdomain.RefreshTokenRecord, error)
	Revoke(ctx context.Context, id, reason string) error
	RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error)
	RevokeAllExcept(ctx context.Context, userID, keepID, reason string) (int64, error)
	Rotate(ctx context.Context, oldID string, newRec *refreshdomain.RefreshTokenRecord) error
	UpdateLastUsed(ctx context.Context, id string, at time.Time) error
}

// BlacklistRepo is the minimal blacklist store needed by the auth service.
type BlacklistRepo interface {
	Add(ctx context.Context, e *blacklistdomain.BlacklistEntry) error
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
}

// SecurityTracker gates logins on lockout state and records attempts.
type SecurityTracker interface {
	IsLocked(ctx context.Context, email string) (bool, time.Duration, error)
	RecordAttempt(ctx context.Context, email, ip string, success bool, reason string) (int, error)
	Lock(ctx context.Context, email string, d time.Duration, reason string) error
	Threshold() int
	LockDuration() time.Duration
}

// AuthService composes the token codec, hasher, and stores into the session
// lifecycle state machine.
type AuthService struct {
	userRepo  UserRepo
	tokenRepo RefreshTokenRepo
	blacklist BlacklistRepo
	tracker   SecurityTracker
	hasher    *security.Hasher
	codec     *security.TokenCodec
	emitter   telemetry.EventEmitter
	now       func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. emitter
// may be nil; events are then dropped.
func NewAuthService(
	userRepo UserRepo,
	tokenRepo RefreshTokenRepo,
	blacklist BlacklistRepo,
	tracker SecurityTracker,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	emitter telemetry.EventEmitter,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		blacklist: blacklist,
		tracker:   tracker,
		hasher:    hasher,
		codec:     codec,
		emitter:   emitter,
		now:       time.Now,
	}
}

// Login authenticates the email/password pair and, on success, issues a token
// pair and persists the refresh record. Lockout is checked before the
// credentials; unknown email and wrong password are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, email, password string, dev DeviceInfo) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	locked, retryAfter, err := s.tracker.IsLocked(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		if _, err := s.tracker.RecordAttempt(ctx, email, dev.IPAddress, false, attemptdomain.FailureAccountLocked); err != nil {
			return nil, err
		}
		return nil, &AccountLockedError{RetryAfter: retryAfter}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, s.failLogin(ctx, email, dev, attemptdomain.FailureBadCredentials)
	}
	if !user.IsActive {
		// Audit trail records the real reason; the caller sees the same
		// generic error as for a bad password.
		return nil, s.failLogin(ctx, email, dev, attemptdomain.FailureInactive)
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, s.failLogin(ctx, email, dev, attemptdomain.FailureBadCredentials)
	}

	if _, err := s.tracker.RecordAttempt(ctx, email, dev.IPAddress, true, ""); err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user, dev, nil)
	if err != nil {
		return nil, err
	}

	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventLoginSucceeded, UserID: user.ID, Email: email,
		IPAddress: dev.IPAddress, CreatedAt: s.now().UTC(),
	})
	return &LoginResult{Pair: *pair, User: user.Sanitized()}, nil
}

// failLogin records the failed attempt, locks the account if the failure
// crossed the threshold, and returns ErrInvalidCredentials.
func (s *AuthService) failLogin(ctx context.Context, email string, dev DeviceInfo, reason string) error {
	count, err := s.tracker.RecordAttempt(ctx, email, dev.IPAddress, false, reason)
	if err != nil {
		return err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventLoginFailed, Email: email,
		IPAddress: dev.IPAddress, Detail: reason, CreatedAt: s.now().UTC(),
	})
	if count >= s.tracker.Threshold() {
		if err := s.tracker.Lock(ctx, email, s.tracker.LockDuration(), "failed login threshold"); err != nil {
			return err
		}
		telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
			Type: telemetry.EventAccountLocked, Email: email,
			IPAddress: dev.IPAddress, Detail: "failed login threshold",
			CreatedAt: s.now().UTC(),
		})
	}
	return ErrInvalidCredentials
}

// Refresh exchanges a valid refresh token for a new pair, rotating the stored
// record atomically so the old token is unusable the instant the new one is
// issued. Presenting an already-revoked token is treated as theft: every
// refresh token for that user is revoked.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string, dev DeviceInfo) (*TokenPair, error) {
	if rawRefreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.codec.Verify(rawRefreshToken, security.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	tokenHash := security.HashToken(rawRefreshToken)
	rec, err := s.tokenRepo.FindValid(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, s.rejectRefresh(ctx, tokenHash)
	}
	// Constant-time recheck of the stored hash against the presented token;
	// the store lookup alone is not trusted to prove the binding.
	if !security.TokenHashEqual(rawRefreshToken, rec.TokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	if rec.UserID != claims.Subject {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	now := s.now().UTC()
	_ = s.tokenRepo.UpdateLastUsed(ctx, rec.ID, now)

	pair, err := s.issuePair(ctx, user, dev, &rec.ID)
	if err != nil {
		if errors.Is(err, refreshrepo.ErrAlreadyRotated) {
			// A concurrent refresh with the same token won the rotation;
			// this caller holds a now-revoked token. Contain.
			return nil, s.containReuse(ctx, rec.UserID)
		}
		return nil, err
	}

	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventTokenRefreshed, UserID: user.ID, Email: user.Email,
		IPAddress: dev.IPAddress, CreatedAt: now,
	})
	return pair, nil
}

// rejectRefresh decides why a refresh token failed FindValid. A record that
// exists but was revoked means the token was already rotated or torn down and
// is being replayed: containment kicks in. Anything else is a plain invalid
// token.
func (s *AuthService) rejectRefresh(ctx context.Context, tokenHash string) error {
	prior, err := s.tokenRepo.FindByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if prior != nil && prior.IsRevoked {
		return s.containReuse(ctx, prior.UserID)
	}
	return ErrInvalidRefreshToken
}

// containReuse revokes every refresh token for the user. Conservative policy:
// a just-issued pair is revoked along with the rest.
func (s *AuthService) containReuse(ctx context.Context, userID string) error {
	revoked, err := s.tokenRepo.RevokeAllForUser(ctx, userID, refreshdomain.ReasonReuseDetected)
	if err != nil {
		return err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventTokenReuseDetected, UserID: userID,
		Detail: fmt.Sprintf("%d sessions revoked", revoked), CreatedAt: s.now().UTC(),
	})
	return ErrTokenReuseDetected
}

// issuePair mints an access/refresh pair for the user and persists the new
// refresh record. When rotateFrom is non-nil the persist happens as an atomic
// rotation of that record instead of a plain insert.
func (s *AuthService) issuePair(ctx context.Context, user *userdomain.User, dev DeviceInfo, rotateFrom *string) (*TokenPair, error) {
	payload := security.TokenPayload{UserID: user.ID, Email: user.Email, Role: string(user.Role)}

	accessToken, accessExp, err := s.codec.SignAccess(payload)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.codec.SignRefresh(payload)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &refreshdomain.RefreshTokenRecord{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: security.HashToken(refreshToken),
		IPAddress: dev.IPAddress,
		UserAgent: dev.UserAgent,
		Device:    dev.Device,
		ExpiresAt: refreshExp,
		CreatedAt: now,
	}
	if rotateFrom != nil {
		err = s.tokenRepo.Rotate(ctx, *rotateFrom, rec)
	} else {
		err = s.tokenRepo.Store(ctx, rec)
	}
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessExp.Sub(now).Seconds()),
	}, nil
}

// ValidateAccess verifies the access token's signature and expiry, then
// checks the blacklist. Both must pass; signature validity alone is not
// enough once logout exists.
func (s *AuthService) ValidateAccess(ctx context.Context, accessToken string) (*security.TokenPayload, error) {
	claims, err := s.codec.Verify(accessToken, security.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	listed, err := s.blacklist.IsBlacklisted(ctx, security.HashToken(accessToken))
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, ErrTokenRevoked
	}
	p := claims.Payload()
	return &p, nil
}

// Logout blacklists the access token (if given) so it is rejected before its
// natural expiry, and revokes the refresh token (or all of the user's refresh
// tokens when allDevices is set). Unknown tokens are ignored; logout is
// idempotent.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string, allDevices bool) error {
	var userID string

	if accessToken != "" {
		// Unverified decode is fine here: blacklisting a forged token grants
		// nothing, and we need the embedded exp for sweep bookkeeping.
		claims, err := s.codec.DecodeUnverified(accessToken)
		if err == nil {
			userID = claims.Subject
			expiresAt := s.now().UTC()
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			entry := &blacklistdomain.BlacklistEntry{
				TokenHash: security.HashToken(accessToken),
				UserID:    claims.Subject,
				Reason:    blacklistdomain.ReasonLogout,
				ExpiresAt: expiresAt,
				CreatedAt: s.now().UTC(),
			}
			if err := s.blacklist.Add(ctx, entry); err != nil {
				return err
			}
		}
	}

	if refreshToken != "" {
		rec, err := s.tokenRepo.FindByHash(ctx, security.HashToken(refreshToken))
		if err != nil {
			return err
		}
		if rec != nil {
			userID = rec.UserID
			if !allDevices {
				if err := s.tokenRepo.Revoke(ctx, rec.ID, refreshdomain.ReasonLogout); err != nil {
					return err
				}
			}
		}
	}

	if allDevices && userID != "" {
		if _, err := s.tokenRepo.RevokeAllForUser(ctx, userID, refreshdomain.ReasonLogoutAll); err != nil {
			return err
		}
	}

	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventLogout, UserID: userID, CreatedAt: s.now().UTC(),
	})
	return nil
}

// LogoutOtherDevices revokes every refresh token for the caller's user except
// the one presented. Returns the number of tokens revoked.
func (s *AuthService) LogoutOtherDevices(ctx context.Context, rawRefreshToken string) (int64, error) {
	if rawRefreshToken == "" {
		return 0, ErrInvalidRefreshToken
	}
	if _, err := s.codec.Verify(rawRefreshToken, security.TokenTypeRefresh); err != nil {
		return 0, ErrInvalidRefreshToken
	}
	rec, err := s.tokenRepo.FindValid(ctx, security.HashToken(rawRefreshToken))
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, ErrInvalidRefreshToken
	}
	revoked, err := s.tokenRepo.RevokeAllExcept(ctx, rec.UserID, rec.ID, refreshdomain.ReasonLogoutAll)
	if err != nil {
		return 0, err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventSessionsRevoked, UserID: rec.UserID,
		Detail: fmt.Sprintf("%d other sessions revoked", revoked), CreatedAt: s.now().UTC(),
	})
	return revoked, nil
}

// ActiveSessions returns the user's active refresh token records with the
// token hashes cleared.
func (s *AuthService) ActiveSessions(ctx context.Context, userID string) ([]*refreshdomain.RefreshTokenRecord, error) {
	recs, err := s.tokenRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*refreshdomain.RefreshTokenRecord, len(recs))
	for i, rec := range recs {
		r := *rec
		r.TokenHash = ""
		out[i] = &r
	}
	return out, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every refresh token for the user. Forcing re-login everywhere is
// the point, not a side effect.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	newHash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}
	revoked, err := s.tokenRepo.RevokeAllForUser(ctx, userID, refreshdomain.ReasonPasswordChange)
	if err != nil {
		return err
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		Type: telemetry.EventPasswordChanged, UserID: userID, Email: user.Email,
		Detail: fmt.Sprintf("%d sessions revoked", revoked), CreatedAt: s.now().UTC(),
	})
	return nil
}
