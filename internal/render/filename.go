package render

import "strings"

// Filename 从简历标题派生导出文件名：非字母数字字符逐个替换为下划线。
func Filename(title, format string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if name == "" {
		name = "resume"
	}
	return name + "." + format
}
