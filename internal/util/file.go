package util

import (
	"fmt"
	"mime"
	"strings"
	"unicode"
)

// SafeFilenamePart 将任意字符串转换为可用于文件名的片段：
// 空白替换为下划线，非字母数字及 -_ 之外的字符被丢弃
func SafeFilenamePart(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out == "" {
		return "user"
	}
	return out
}

// ContentDisposition 生成附件下载头，非 ASCII 文件名按 RFC 6266 编码
func ContentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}
