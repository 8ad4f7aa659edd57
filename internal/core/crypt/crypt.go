// Package crypt 提供心跳帧使用的对称分组密码
//
// 帧的加解密只依赖 cipher.Block：每帧恰好是一个 16 字节的 AES 分组，
// 原地变换，不改变长度。密钥由共享口令通过 Argon2id 派生。
//
// 双方必须独立得到相同的密钥，因此派生使用固定盐值，
// 口令是唯一的秘密输入。
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ============================================================================
//                              常量与错误
// ============================================================================

const (
	// BlockSize 分组大小（与帧大小一致）
	BlockSize = aes.BlockSize

	// Argon2 参数
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
)

// keySalt 固定盐值，服务端与客户端必须一致
var keySalt = []byte("keepalive/heartbeat/v1")

var (
	// ErrEmptyPassword 未提供口令
	ErrEmptyPassword = errors.New("crypt: empty password")
)

// ============================================================================
//                              Block
// ============================================================================

// DeriveKey 由口令派生 AES-256 密钥
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return argon2.IDKey([]byte(password), keySalt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen), nil
}

// NewBlock 由口令创建分组密码
//
// 返回的 cipher.Block 同时用于加密和解密，可并发使用。
func NewBlock(password string) (cipher.Block, error) {
	key, err := DeriveKey(password)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: init aes: %w", err)
	}
	return block, nil
}
