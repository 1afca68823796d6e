package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"AOChat-Wallet/internal/ao"
)

// Credential 是落库保存的加密凭据格式。私钥种子经 scrypt 派生的
// 密钥用 AES-256-CTR 加密，并带有 MAC 防篡改。
type Credential struct {
	Address    string `json:"address"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	MAC        string `json:"mac"`
	KDF        struct {
		N     int `json:"n"`
		R     int `json:"r"`
		P     int `json:"p"`
		DKLen int `json:"dklen"`
	} `json:"kdf"`
}

// Vault 用主密钥解密托管的钱包凭据，并返回可用的消息签名者。
type Vault struct {
	secret string
}

// ErrCredentialInvalid 表示凭据损坏或主密钥不匹配。
var ErrCredentialInvalid = errors.New("钱包凭据无效")

// New 创建 Vault。secret 是进程级主密钥。
func New(secret string) (*Vault, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("vault 主密钥不能为空")
	}
	return &Vault{secret: secret}, nil
}

// Decrypt 解密存储的凭据并返回签名者。任何一步失败都视为凭据
// 无效，由上层统一当作"钱包缺失"处理。
func (v *Vault) Decrypt(stored string) (ao.Signer, error) {
	var cred Credential
	if err := json.Unmarshal([]byte(stored), &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	salt, err := hex.DecodeString(cred.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt 解码失败", ErrCredentialInvalid)
	}
	iv, err := hex.DecodeString(cred.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv 解码失败", ErrCredentialInvalid)
	}
	ciphertext, err := hex.DecodeString(cred.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: 密文解码失败", ErrCredentialInvalid)
	}
	expectedMAC, err := hex.DecodeString(cred.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: mac 解码失败", ErrCredentialInvalid)
	}

	n, r, p, dklen := cred.KDF.N, cred.KDF.R, cred.KDF.P, cred.KDF.DKLen
	if n <= 0 {
		n, r, p, dklen = defaultN, defaultR, defaultP, defaultDKLen
	}
	derived, err := scrypt.Key([]byte(v.secret), salt, n, r, p, dklen)
	if err != nil {
		return nil, fmt.Errorf("%w: 密钥派生失败", ErrCredentialInvalid)
	}
	if len(derived) < defaultDKLen {
		return nil, fmt.Errorf("%w: 派生密钥过短", ErrCredentialInvalid)
	}

	// 加密密钥与 MAC 密钥取自派生密钥的不相交区段。
	mac := calculateMAC(derived[32:48], ciphertext)
	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return nil, fmt.Errorf("%w: MAC 校验失败", ErrCredentialInvalid)
	}

	seed, err := decryptCTR(derived[:32], iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: 解密失败", ErrCredentialInvalid)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: 种子长度异常", ErrCredentialInvalid)
	}

	key := ed25519.NewKeyFromSeed(seed)
	address := cred.Address
	if address == "" {
		address = DeriveAddress(key.Public().(ed25519.PublicKey))
	}
	return &signer{address: address, key: key}, nil
}

// 前 32 字节做 AES-256 加密密钥，后 16 字节做 MAC 密钥，两段不重叠。
const (
	defaultN     = 1 << 15
	defaultR     = 8
	defaultP     = 1
	defaultDKLen = 48
)

// DeriveAddress 由公钥推导链上地址：公钥的 SHA-256 摘要做
// base64url 编码。
func DeriveAddress(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func calculateMAC(key, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(key)+len(ciphertext))
	buf = append(buf, key...)
	buf = append(buf, ciphertext...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

func decryptCTR(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, errors.New("iv 长度不合法")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// signer 持有解密后的私钥，实现 ao.Signer。
type signer struct {
	address string
	key     ed25519.PrivateKey
}

func (s *signer) Address() string { return s.address }

func (s *signer) Sign(_ context.Context, payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}
