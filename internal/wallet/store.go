package wallet

import (
	"context"
	"time"

	xerrors "AOChat-Wallet/internal/errors"
)

// User 是一条托管钱包记录：外部会话标识、链上地址与加密凭据。
type User struct {
	ExternalID string
	Address    string
	Credential string
	CreatedAt  int64
	UpdatedAt  int64
}

// 常用存储层错误。
var (
	ErrUserNotFound = xerrors.New(xerrors.CodeUserNotFound, "未找到用户记录")
	ErrUserConflict = xerrors.New(xerrors.CodeStorageFailure, "用户记录已存在")
)

// Store 定义用户钱包记录的读写接口。
type Store interface {
	// FindByExternalID 依据外部会话标识查找用户。
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// Create 写入一条新记录，标识冲突时返回 ErrUserConflict。
	Create(ctx context.Context, user *User) error
}

func stampUser(user *User) {
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}
