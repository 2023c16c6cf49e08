package crypto

import (
	"encoding/hex"

	"github.com/tjfoc/gmsm/sm3"
)

func SM3(data string) string {
	h := sm3.New()
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint 凭证指纹, 用于日志定位而不暴露凭证本身
func Fingerprint(token string) string {

	if token == "" {
		return "-"
	}

	return SM3(token)[:12]
}
