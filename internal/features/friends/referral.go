// Package friends — приглашения друзей по реферальным ссылкам.
// referral.go кодирует user ID в короткий код для ссылки t.me/<bot>?start=<код>.
package friends

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/hkdf"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// keystreamInfo — контекст HKDF, отделяет ключ рефералок от других применений секрета.
const keystreamInfo = "fitmates referral v1"

// maxIDDigits — длина int64 в десятичной записи со знаком.
const maxIDDigits = 20

// Codec обратимо шифрует user ID: десятичная запись XOR ключевой поток,
// затем URL-safe base64 без паддинга.
type Codec struct {
	keystream []byte
}

// NewCodec выводит ключевой поток из секрета через HKDF-SHA256.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("пустой секрет рефералок")
	}
	ks := make([]byte, maxIDDigits)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keystreamInfo))
	if _, err := io.ReadFull(r, ks); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return &Codec{keystream: ks}, nil
}

// Encode превращает user ID в реферальный код.
func (c *Codec) Encode(userID int64) string {
	plain := []byte(strconv.FormatInt(userID, 10))
	return base64.RawURLEncoding.EncodeToString(c.xor(plain))
}

// Decode восстанавливает user ID из кода.
func (c *Codec) Decode(code string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil || len(raw) == 0 || len(raw) > maxIDDigits {
		return 0, common.ErrInvalidReferral
	}
	id, err := strconv.ParseInt(string(c.xor(raw)), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidReferral
	}
	return id, nil
}

func (c *Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.keystream[i%len(c.keystream)]
	}
	return out
}

// Link возвращает реферальную ссылку бота.
func (c *Codec) Link(botUsername string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, c.Encode(userID))
}
