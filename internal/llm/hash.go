package llm

import (
	"crypto/md5"
	"fmt"
)

func hashText(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
