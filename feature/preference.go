package feature

import (
	"strconv"
	"strings"
)

// Preferences 是用户填写的阅读偏好，用于内容召回的偏好向量。
type Preferences struct {
	Genres  []string `json:"genres"`
	Authors []string `json:"authors"`
	Age     int      `json:"age,omitempty"`
	Pincode string   `json:"pincode,omitempty"`
}

// Text 把偏好拼成向量索引用于编码的文本：
//
//	genres: a, b, authors: x, y, age: 30, pincode: 560001
//
// 缺失的列表写作 none，缺失的年龄与邮编写作 unknown。
func (p Preferences) Text() string {
	var sb strings.Builder
	sb.WriteString("genres: ")
	sb.WriteString(joinOr(p.Genres, "none"))
	sb.WriteString(", authors: ")
	sb.WriteString(joinOr(p.Authors, "none"))
	sb.WriteString(", age: ")
	if p.Age > 0 {
		sb.WriteString(strconv.Itoa(p.Age))
	} else {
		sb.WriteString("unknown")
	}
	sb.WriteString(", pincode: ")
	if pin := strings.TrimSpace(p.Pincode); pin != "" {
		sb.WriteString(pin)
	} else {
		sb.WriteString("unknown")
	}
	return sb.String()
}

// Empty 所有字段都缺失
func (p Preferences) Empty() bool {
	return len(compact(p.Genres)) == 0 && len(compact(p.Authors)) == 0 && p.Age <= 0 && strings.TrimSpace(p.Pincode) == ""
}

func joinOr(values []string, fallback string) string {
	values = compact(values)
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
