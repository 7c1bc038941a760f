package recommend

import (
	"strings"
	"unicode/utf8"
)

// DefaultTitle is used when no line of the chunk text qualifies as a title.
const DefaultTitle = "제목 없음"

// CategoryOther is the fallback when no keyword matches.
const CategoryOther = "기타"

// categoryKeywords is the single canonical keyword→category table. Both the
// recommendation engine and display layers classify through it; order
// matters, the first matching category wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"청년", []string{"청년", "20대", "30대", "학졸자", "구직자"}},
	{"고령자", []string{"고령자", "신중년", "50대", "60대"}},
	{"장애인", []string{"장애인", "중증장애", "경증장애"}},
	{"여성", []string{"여성", "육아", "출산", "모성"}},
	{"외국인", []string{"외국인", "다문화", "이주민"}},
	{"사업주", []string{"사업주", "기업", "고용주", "사업장"}},
	{"직업능력개발", []string{"직업훈련", "능력개발", "자격증", "교육훈련"}},
}

// ClassifyCategory estimates a policy category from chunk text.
func ClassifyCategory(text string) string {
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(text, keyword) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// ExtractTitle takes the first reasonably short line of the chunk text as
// its title.
func ExtractTitle(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && utf8.RuneCountInString(line) < 100 {
			return line
		}
	}
	return DefaultTitle
}
