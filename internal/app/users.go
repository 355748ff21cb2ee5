/**
 * @description
 * This file implements registration, email verification and login. A signup
 * creates the user together with their default account in one unit of work,
 * then issues a six-digit verification code and publishes a mail event for the
 * worker to deliver. Login only succeeds for verified users and returns a
 * short-lived signed token.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing.
 * - github.com/golang-jwt/jwt/v5: Access-token issuance.
 * - math/rand: Verification-code generation.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/corebank/banking-service/internal/domain"
)

// SignUp registers a new user with their default account, then kicks off email
// verification. The user row and the default account commit together; the
// verification mail is published after the commit and delivered asynchronously.
func (s *Service) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:             uuid.New(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Username:       req.Username,
		HashedPassword: string(hashed),
		Email:          req.Email,
	}
	if err := s.repo.CreateUserWithDefaultAccount(ctx, user, DefaultAccountName); err != nil {
		return nil, err
	}

	log.Printf("level=info component=users msg=\"user registered\" user_id=%s username=%s", user.ID, user.Username)

	// Verification is best-effort after the commit. If storing the code or
	// publishing the event fails, the user exists and can retry verification.
	if err := s.issueVerificationCode(ctx, user); err != nil {
		log.Printf("level=warn component=users msg=\"verification code issue failed\" user_id=%s err=%v", user.ID, err)
	}

	return user, nil
}

// RequestVerificationCode issues a fresh code for a registered, unverified
// user and publishes the mail event for it.
func (s *Service) RequestVerificationCode(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return domain.Errorf(domain.KindNameConflict, "email is already verified")
	}
	return s.issueVerificationCode(ctx, user)
}

func (s *Service) issueVerificationCode(ctx context.Context, user *domain.User) error {
	code := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	expires := time.Now().UTC().Add(s.codeTTL)

	if err := s.repo.SetVerificationCode(ctx, user.ID, code, expires); err != nil {
		return err
	}

	if s.producer == nil {
		return nil
	}
	event := domain.VerificationMailEvent{
		Email:     user.Email,
		Username:  user.Username,
		Code:      code,
		ExpiresAt: expires,
	}
	if err := s.producer.Publish(ctx, EventsExchange, VerificationMailRoutingKey, event); err != nil {
		// The code is stored; only delivery is degraded.
		log.Printf("level=warn component=users msg=\"verification mail publish failed\" user_id=%s err=%v", user.ID, err)
	}
	return nil
}

// VerifyEmail confirms a pending verification code and marks the user's email
// as verified.
func (s *Service) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) error {
	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return nil
	}
	if user.EmailVerificationCode == nil || user.VerificationCodeExpires == nil {
		return domain.Errorf(domain.KindUnauthenticated, "no verification code pending")
	}
	if time.Now().UTC().After(*user.VerificationCodeExpires) {
		return domain.Errorf(domain.KindUnauthenticated, "verification code has expired")
	}
	if *user.EmailVerificationCode != req.Code {
		return domain.Errorf(domain.KindUnauthenticated, "verification code does not match")
	}

	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	log.Printf("level=info component=users msg=\"email verified\" user_id=%s", user.ID)
	return nil
}

// Login authenticates a username/password pair and issues a signed access
// token. Unknown users and wrong passwords return the same error so login
// attempts cannot probe for registered usernames.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	user, err := s.repo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.Errorf(domain.KindUnauthenticated, "incorrect username or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		return nil, domain.Errorf(domain.KindUnauthenticated, "incorrect username or password")
	}
	if !user.IsEmailVerified {
		return nil, domain.Errorf(domain.KindUnauthenticated, "email is not verified")
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.Username,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=users msg=\"login succeeded\" user_id=%s", user.ID)
	return &domain.TokenResponse{AccessToken: signed, TokenType: "bearer"}, nil
}

// VerifyAccessToken validates a signed token and returns the username it was
// issued to. The API middleware calls this on every protected request.
func (s *Service) VerifyAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.Errorf(domain.KindUnauthenticated, "invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.Errorf(domain.KindUnauthenticated, "invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.Errorf(domain.KindUnauthenticated, "token has no subject")
	}
	return sub, nil
}
