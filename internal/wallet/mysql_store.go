package wallet

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "AOChat-Wallet/internal/errors"
)

// MySQLStore 使用 MySQL 持久化用户钱包记录。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建一个新的 MySQLStore。
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema() error {
	const schema = `CREATE TABLE IF NOT EXISTS wallet_users (
        external_id VARCHAR(64) PRIMARY KEY,
        address VARCHAR(64) NOT NULL,
        credential TEXT NOT NULL,
        created_at BIGINT NOT NULL,
        updated_at BIGINT NOT NULL,
        INDEX idx_wallet_address (address)
)`

	if _, err := s.db.Exec(schema); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化 wallet_users 表失败")
	}
	return nil
}

// FindByExternalID 实现 Store 接口。
func (s *MySQLStore) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT external_id, address, credential, created_at, updated_at FROM wallet_users WHERE external_id = ?`,
		strings.TrimSpace(externalID))

	var user User
	err := row.Scan(&user.ExternalID, &user.Address, &user.Credential, &user.CreatedAt, &user.UpdatedAt)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询用户记录失败")
	}
	return &user, nil
}

// Create 实现 Store 接口。
func (s *MySQLStore) Create(ctx context.Context, user *User) error {
	if user == nil || strings.TrimSpace(user.ExternalID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "用户标识不能为空")
	}
	stampUser(user)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallet_users (external_id, address, credential, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ExternalID, user.Address, user.Credential, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrUserConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入用户记录失败")
	}
	return nil
}

// Close 关闭数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
