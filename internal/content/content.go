// Package content превращает текст поста в безопасный HTML-фрагмент.
//
// Поддерживается только **жирный** и *курсив*. Текст всегда сначала экранируется,
// разметка вставляется уже поверх экранированной строки.
package content

import (
	"html/template"
	"regexp"
	"strings"
)

const (
	strongOpen = `<strong class="font-semibold">`
	strongEnd  = `</strong>`
	emOpen     = `<em class="italic">`
	emEnd      = `</em>`
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Нежадный поиск: "**a** and **b**" дает два отдельных блока.
var boldPattern = regexp.MustCompile(`\*\*([^\n\r\x{2028}\x{2029}]+?)\*\*`)

// Sanitize экранирует &, <, >, " и ' именованными ссылками.
// Повторный вызов экранирует & еще раз, поэтому вызывать его нужно ровно один раз.
func Sanitize(text string) string {
	return escaper.Replace(text)
}

// Render экранирует сырой текст и применяет форматирование.
// Это единственный способ получить доверенный фрагмент для шаблона.
func Render(raw string) template.HTML {
	return template.HTML(format(Sanitize(raw)))
}

// format ожидает уже экранированный текст.
// Жирный разбирается первым, курсив применяется отдельно внутри и между жирными блоками,
// так что теги всегда корректно вложены.
func format(s string) string {
	matches := boldPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return italicize(s)
	}

	var b strings.Builder
	b.Grow(len(s) + len(matches)*(len(strongOpen)+len(strongEnd)))
	last := 0
	for _, m := range matches {
		b.WriteString(italicize(s[last:m[0]]))
		b.WriteString(strongOpen)
		b.WriteString(italicize(s[m[2]:m[3]]))
		b.WriteString(strongEnd)
		last = m[1]
	}
	b.WriteString(italicize(s[last:]))
	return b.String()
}

// italicize заменяет *текст* на <em>, если открывающая звездочка не стоит после другой
// звездочки, а закрывающая не стоит перед другой.
func italicize(s string) string {
	if strings.IndexByte(s, '*') < 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '*' || (i > 0 && s[i-1] == '*') {
			continue
		}
		j := strings.IndexByte(s[i+1:], '*')
		if j <= 0 {
			continue
		}
		end := i + 1 + j
		if end+1 < len(s) && s[end+1] == '*' {
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(emOpen)
		b.WriteString(s[i+1 : end])
		b.WriteString(emEnd)
		last = end + 1
		i = end
	}
	b.WriteString(s[last:])
	return b.String()
}
