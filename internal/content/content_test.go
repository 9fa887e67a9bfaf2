package content

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "**bold**", `<strong class="font-semibold">bold</strong>`},
		{"italic", "*italic*", `<em class="italic">italic</em>`},
		{"plain", "plain text", "plain text"},
		{"empty", "", ""},
		{"two bold spans", "**a** and **b**", `<strong class="font-semibold">a</strong> and <strong class="font-semibold">b</strong>`},
		{"italic inside bold", "**a *b* c**", `<strong class="font-semibold">a <em class="italic">b</em> c</strong>`},
		{"triple asterisks", "***a***", `<strong class="font-semibold">*a</strong>*`},
		{"unmatched", "**open *and", "**open *and"},
		{"italic needs lone asterisks", "*a**b*", "*a**b*"},
		{"bold does not cross lines", "**a\nb**", "**a\nb**"},
		{"italic crosses lines", "*a\nb*", "<em class=\"italic\">a\nb</em>"},
		{"escaped markup", `<b>"x"</b>`, "&lt;b&gt;&quot;x&quot;&lt;/b&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Render(tt.in)))
		})
	}
}

func TestRender_NoScriptTag(t *testing.T) {
	out := string(Render("a <script>alert(1)</script> b"))
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, "a &lt;script&gt;alert(1)&lt;/script&gt; b", out)
}

func TestRender_Golden(t *testing.T) {
	inputs := []string{
		"**bold**",
		"*italic*",
		"plain text",
		"a <script>alert(1)</script> b",
		"**a** and **b**",
		"**a *b* c**",
		"***a***",
		"**unclosed and *lonely",
		`Tom & "Jerry's"`,
		"2 * 3 * 4",
	}

	var buf bytes.Buffer
	for _, in := range inputs {
		fmt.Fprintf(&buf, "in:  %s\nout: %s\n", in, Render(in))
	}

	g := goldie.New(t)
	g.Assert(t, "render", buf.Bytes())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#039;", Sanitize(`&<>"'`))
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "привет, мир", Sanitize("привет, мир"))
	// Второй проход экранирует & повторно.
	assert.Equal(t, "&amp;amp;", Sanitize(Sanitize("&")))
	assert.Equal(t, "abc", Sanitize(Sanitize("abc")))
}

// Для любых строк в выводе нет <, >, ", ', а каждый & начинает одну из пяти ссылок.
func TestSanitize_Property(t *testing.T) {
	alphabet := []rune(`&<>"'*ab c#;амп`)
	refs := []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#039;"}
	rnd := rand.New(rand.NewSource(42))

	for n := 0; n < 500; n++ {
		runes := make([]rune, rnd.Intn(40))
		for i := range runes {
			runes[i] = alphabet[rnd.Intn(len(alphabet))]
		}
		out := Sanitize(string(runes))

		assert.NotContains(t, out, "<")
		assert.NotContains(t, out, ">")
		assert.NotContains(t, out, `"`)
		assert.NotContains(t, out, "'")

		for i := 0; i < len(out); i++ {
			if out[i] != '&' {
				continue
			}
			ok := false
			for _, ref := range refs {
				if strings.HasPrefix(out[i:], ref) {
					ok = true
					break
				}
			}
			assert.True(t, ok, "dangling & in %q", out)
		}

		// Форматирование добавляет только собственные теги.
		formatted := string(Render(string(runes)))
		stripped := strings.NewReplacer(strongOpen, "", strongEnd, "", emOpen, "", emEnd, "").Replace(formatted)
		assert.NotContains(t, stripped, "<")
		assert.NotContains(t, stripped, ">")
	}
}
