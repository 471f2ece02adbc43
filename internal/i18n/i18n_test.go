package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupNestedKey(t *testing.T) {
	tr := New(English)
	assert.Equal(t, "Daily usage quota exceeded", tr.T("errors.backend.quota_exceeded", nil))
}

func TestFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		lang Lang
		key  string
		want string
	}{
		{
			name: "korean catalog hit",
			lang: Korean,
			key:  "errors.cancelled",
			want: "크롤링이 취소되었습니다",
		},
		{
			name: "unknown key returns key",
			lang: Korean,
			key:  "errors.nope.missing",
			want: "errors.nope.missing",
		},
		{
			name: "partial key returns key",
			lang: English,
			key:  "errors.backend",
			want: "errors.backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.lang)
			assert.Equal(t, tt.want, tr.T(tt.key, nil))
		})
	}
}

func TestInterpolation(t *testing.T) {
	tr := New(English)

	got := tr.T("crawlingStatus.eta", Vars{"seconds": 42})
	assert.Equal(t, "About 42s remaining", got)

	// Unknown placeholders stay visible.
	got = tr.T("crawlingStatus.connecting", nil)
	assert.Equal(t, "Connecting to {site}...", got)
}

func TestSetLanguage(t *testing.T) {
	tr := New(English)
	tr.SetLanguage(Japanese)
	assert.Equal(t, Japanese, tr.Language())
	assert.Equal(t, "クロールをキャンセルしました", tr.T("errors.cancelled", nil))
}

func TestParseLang(t *testing.T) {
	assert.Equal(t, English, ParseLang("EN"))
	assert.Equal(t, Japanese, ParseLang("jp"))
	assert.Equal(t, Korean, ParseLang(""))
	assert.Equal(t, Korean, ParseLang("ko"))
}
