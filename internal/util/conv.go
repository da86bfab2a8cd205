package util

import (
	"strconv"
)

// FormatUint 将 ID 转为字符串，用作缓存或限流 key
func FormatUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParsePaging 解析分页参数，非法值回退为默认值
func ParsePaging(pageStr, limitStr string) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
