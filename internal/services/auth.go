package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	appdb "github.com/lessonworks/pianoschool-backend/internal/data/db"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/account"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	PersonID string `json:"person_id"`
}

type AuthService interface {
	Register(ctx context.Context, personID uuid.UUID, email, password string) (*types.Account, error)
	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db          *gorm.DB
	log         *logger.Logger
	accountRepo account.AccountRepo
	personRepo  person.PersonRepo
	jwtSecret   string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	accountRepo account.AccountRepo,
	personRepo person.PersonRepo,
	jwtSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:          db,
		log:         serviceLog,
		accountRepo: accountRepo,
		personRepo:  personRepo,
		jwtSecret:   jwtSecret,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, personID uuid.UUID, email, password string) (*types.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.Invalid("email_password_required", errors.New("email and password are required"))
	}

	if _, err := as.personRepo.GetByID(ctx, nil, personID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("person_not_found", err)
		}
		return nil, err
	}

	exists, err := as.accountRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("email_taken", errors.New("email already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &types.Account{
		ID:       uuid.New(),
		PersonID: personID,
		Email:    email,
		Password: string(hashed),
	}
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := as.accountRepo.Create(ctx, tx, acct)
		return cErr
	}); err != nil {
		if appdb.IsUniqueViolation(err) {
			return nil, apierr.Conflict("email_taken", err)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acct, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acct, err := as.accountRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apierr.New(401, "invalid_credentials", errors.New("invalid email or password"))
		}
		return "", "", fmt.Errorf("fetch account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(password)) != nil {
		return "", "", apierr.New(401, "invalid_credentials", errors.New("invalid email or password"))
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, genErr := as.generateAccessToken(acct)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		refreshToken = uuid.New().String()

		accountToken := &types.AccountToken{
			ID:           uuid.New(),
			AccountID:    acct.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		_, cErr := as.accountRepo.CreateToken(ctx, tx, accountToken)
		return cErr
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", apierr.New(401, "missing_refresh_token", errors.New("refresh token required"))
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, ftErr := as.accountRepo.GetTokenByRefresh(ctx, tx, refreshToken)
		if ftErr != nil {
			if errors.Is(ftErr, gorm.ErrRecordNotFound) {
				return apierr.New(401, "invalid_refresh_token", ftErr)
			}
			return fmt.Errorf("fetch refresh token: %w", ftErr)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.accountRepo.DeleteToken(ctx, tx, existing.ID); dErr != nil {
				return fmt.Errorf("delete expired token: %w", dErr)
			}
			return apierr.New(401, "refresh_token_expired", errors.New("refresh token expired"))
		}

		acct, aErr := as.accountRepo.GetByID(ctx, tx, existing.AccountID)
		if aErr != nil {
			return fmt.Errorf("load account for refresh: %w", aErr)
		}

		tok, genErr := as.generateAccessToken(acct)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()

		replacement := &types.AccountToken{
			ID:           uuid.New(),
			AccountID:    acct.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.accountRepo.CreateToken(ctx, tx, replacement); cErr != nil {
			return fmt.Errorf("create replacement token: %w", cErr)
		}
		return as.accountRepo.DeleteToken(ctx, tx, existing.ID)
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.AccountID == uuid.Nil {
		return apierr.New(401, "not_authenticated", errors.New("no authenticated account in context"))
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return as.accountRepo.DeleteTokensForAccount(ctx, tx, rd.AccountID)
	})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecret), nil
	})
	if err != nil {
		return ctx, apierr.New(401, "invalid_token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.New(401, "invalid_token", errors.New("invalid or expired token"))
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.New(401, "invalid_token", fmt.Errorf("invalid account id in token: %w", err))
	}
	personID, err := uuid.Parse(claims.PersonID)
	if err != nil {
		return ctx, apierr.New(401, "invalid_token", fmt.Errorf("invalid person id in token: %w", err))
	}

	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		AccountID:   accountID,
		PersonID:    personID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func (as *authService) generateAccessToken(acct *types.Account) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		PersonID: acct.PersonID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecret))
}
