package repository

import (
	"context"
	"errors"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"gorm.io/gorm"
)

// BaseRepository is implemented by every repository.
type BaseRepository interface {
	GetDB() *gorm.DB
}

// Pagination is a 1-based page request; Total is filled by list queries.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// MaxPageSize is the largest page a list query returns.
const MaxPageSize = 100

// NewPagination clamps page to >= 1 and pageSize to 1..MaxPageSize (default 10).
func NewPagination(page, pageSize int) *Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}

// Offset of the first row of the page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// HasNext reports whether rows remain after this page.
func (p *Pagination) HasNext() bool {
	return int64(p.Offset()+p.PageSize) < p.Total
}

// Paginate applies p as a gorm scope.
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// BaseRepo carries the connection (or transaction) of a repository.
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo creates a BaseRepo.
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB returns the underlying connection.
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// Transaction runs fn inside a database transaction.
func (r *BaseRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// notFound maps gorm.ErrRecordNotFound to an ErrNotFound AppError and wraps
// anything else as a query failure.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New(apperrors.ErrNotFound, what)
	}
	return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, what)
}

// IsNotFound reports whether err is a missing-record error from this package.
func IsNotFound(err error) bool {
	return apperrors.Is(err, apperrors.ErrNotFound)
}
