package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
)

// GenerateSlugFromTitle 根据岗位名称生成发布用的 URL slug，
// 中文转成拼音，其余字符只保留字母和数字，最后追加一段随机后缀保证唯一
func GenerateSlugFromTitle(title string) string {
	parts := make([]string, 0)
	ascii := strings.Builder{}

	flushASCII := func() {
		if ascii.Len() > 0 {
			parts = append(parts, strings.ToLower(ascii.String()))
			ascii.Reset()
		}
	}

	for _, r := range title {
		switch {
		case unicode.Is(unicode.Han, r):
			flushASCII()
			py := pinyin.LazyConvert(string(r), nil)
			if len(py) > 0 {
				parts = append(parts, py[0])
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			ascii.WriteRune(r)
		default:
			flushASCII()
		}
	}
	flushASCII()

	suffix := strings.Split(uuid.NewString(), "-")[0]
	if len(parts) == 0 {
		return "position-" + suffix
	}
	return strings.Join(parts, "-") + "-" + suffix
}
