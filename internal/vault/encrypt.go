package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Encrypt 把 32 字节私钥种子封装成可落库的凭据。主要用于
// 钱包开通流程与测试。
func (v *Vault) Encrypt(seed []byte) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("种子必须是 %d 字节", ed25519.SeedSize)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("生成 salt 失败: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("生成 iv 失败: %w", err)
	}

	derived, err := scrypt.Key([]byte(v.secret), salt, defaultN, defaultR, defaultP, defaultDKLen)
	if err != nil {
		return "", fmt.Errorf("密钥派生失败: %w", err)
	}

	block, err := aes.NewCipher(derived[:32])
	if err != nil {
		return "", fmt.Errorf("创建加密器失败: %w", err)
	}
	ciphertext := make([]byte, len(seed))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, seed)

	key := ed25519.NewKeyFromSeed(seed)

	var cred Credential
	cred.Address = DeriveAddress(key.Public().(ed25519.PublicKey))
	cred.Ciphertext = hex.EncodeToString(ciphertext)
	cred.IV = hex.EncodeToString(iv)
	cred.Salt = hex.EncodeToString(salt)
	cred.MAC = hex.EncodeToString(calculateMAC(derived[32:48], ciphertext))
	cred.KDF.N = defaultN
	cred.KDF.R = defaultR
	cred.KDF.P = defaultP
	cred.KDF.DKLen = defaultDKLen

	encoded, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("序列化凭据失败: %w", err)
	}
	return string(encoded), nil
}
