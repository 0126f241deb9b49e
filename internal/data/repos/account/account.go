package account

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type AccountRepo interface {
	Create(ctx context.Context, tx *gorm.DB, account *types.Account) (*types.Account, error)
	GetByID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.Account, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Account, error)
	GetByPersonID(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (*types.Account, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdatePassword(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, hashed string) error

	CreateToken(ctx context.Context, tx *gorm.DB, token *types.AccountToken) (*types.AccountToken, error)
	GetTokenByRefresh(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.AccountToken, error)
	DeleteToken(ctx context.Context, tx *gorm.DB, tokenID uuid.UUID) error
	DeleteTokensForAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	repoLog := baseLog.With("repo", "AccountRepo")
	return &accountRepo{db: db, log: repoLog}
}

func (ar *accountRepo) Create(ctx context.Context, tx *gorm.DB, account *types.Account) (*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (ar *accountRepo) GetByID(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Account
	if err := transaction.WithContext(ctx).
		Where("id = ?", accountID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *accountRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Account
	if err := transaction.WithContext(ctx).
		Where("email = ?", email).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *accountRepo) GetByPersonID(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Account
	if err := transaction.WithContext(ctx).
		Where("person_id = ?", personID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *accountRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Account{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ar *accountRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, hashed string) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Account{}).
		Where("id = ?", accountID).
		Update("password", hashed).Error
}

func (ar *accountRepo) CreateToken(ctx context.Context, tx *gorm.DB, token *types.AccountToken) (*types.AccountToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (ar *accountRepo) GetTokenByRefresh(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.AccountToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.AccountToken
	if err := transaction.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *accountRepo) DeleteToken(ctx context.Context, tx *gorm.DB, tokenID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", tokenID).
		Delete(&types.AccountToken{}).Error
}

func (ar *accountRepo) DeleteTokensForAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&types.AccountToken{}).Error
}
