package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Drying      DryingRepository
	WorkSession WorkSessionRepository
	WorkRecord  WorkRecordRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Drying:      NewDryingRepo(db),
		WorkSession: NewWorkSessionRepo(db),
		WorkRecord:  NewWorkRecordRepo(db),
	}
}

const pgUniqueViolation = "23505"

// isUniqueViolation 唯一约束冲突判断
// TranslateError 开启时为 gorm.ErrDuplicatedKey，否则为原始 pgconn 错误
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
