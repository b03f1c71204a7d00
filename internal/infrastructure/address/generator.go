// Package address выдаёт адреса пополнения.
//
// HMACGenerator выводит адрес из секрета, пользователя, платформы и случайной
// соли. Закрытых ключей к таким адресам нет, поэтому он предназначен только
// для разработки и тестовых стендов. В production адреса должен выдавать
// кастодиальный сервис через deposit.AddressGenerator; пока он не подключён,
// используется Disabled.
package address

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Сети, где один адрес общий и пользователя различает memo/tag.
var memoNetworks = map[string]bool{
	"XRP": true,
	"XLM": true,
	"EOS": true,
	"TON": true,
}

var evmNetworks = map[string]bool{
	"ERC20":   true,
	"BEP20":   true,
	"ETH":     true,
	"BSC":     true,
	"POLYGON": true,
}

// Disabled отклоняет выдачу адресов.
type Disabled struct{}

func (Disabled) Generate(context.Context, uuid.UUID, *entity.Platform) (string, *string, error) {
	return "", nil, apperror.ErrAddressIssuingDisabled
}

// HMACGenerator реализует deposit.AddressGenerator для разработки.
type HMACGenerator struct {
	secret []byte
	salt   func() ([]byte, error)
}

func NewHMACGenerator(secret string) (*HMACGenerator, error) {
	if len(secret) < 16 {
		return nil, errors.New("address: секрет должен быть не короче 16 символов")
	}
	return &HMACGenerator{secret: []byte(secret), salt: randomSalt}, nil
}

func (g *HMACGenerator) Generate(ctx context.Context, userID uuid.UUID, platform *entity.Platform) (string, *string, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	salt, err := g.salt()
	if err != nil {
		return "", nil, fmt.Errorf("address: соль: %w", err)
	}

	network := strings.ToUpper(platform.NetworkName())
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(userID[:])
	_ = binary.Write(mac, binary.BigEndian, platform.ID)
	mac.Write([]byte(platform.Symbol + "|" + network))
	mac.Write(salt)
	sum := mac.Sum(nil)

	switch {
	case memoNetworks[network]:
		// Общий адрес платформы, тег уникален для пользователя.
		shared := hmac.New(sha256.New, g.secret)
		_ = binary.Write(shared, binary.BigEndian, platform.ID)
		tag := strconv.FormatUint(binary.BigEndian.Uint64(sum[:8])%1_000_000_000, 10)
		return "r" + base58(shared.Sum(nil)[:20]), &tag, nil
	case evmNetworks[network]:
		return "0x" + hex.EncodeToString(sum[:20]), nil, nil
	case network == "TRC20" || network == "TRON":
		return "T" + base58(sum[:24]), nil, nil
	default:
		return strings.ToLower(platform.Symbol) + "_" + hex.EncodeToString(sum[:16]), nil, nil
	}
}

func randomSalt() ([]byte, error) {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	return b, err
}

func base58(b []byte) string {
	n := new(big.Int).SetBytes(b)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for n.Sign() > 0 {
		n.DivMod(n, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, c := range b {
		if c != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
