package util

import (
	"encoding/base64"

	"github.com/goccy/go-json"
)

// EncodeCursor 将分页位置编码为 URL 安全的 Base64 字符串
func EncodeCursor(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor 将前端传来的游标解码到 out
func DecodeCursor(cursor string, out any) error {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
