package i18n

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		path     string
		wantLoc  Locale
		wantRest string
		wantOK   bool
	}{
		{"/en/", English, "/", true},
		{"/fr", French, "/", true},
		{"/ja/blog/my-post/", Japanese, "/blog/my-post/", true},
		{"/vi/contact/", Vietnamese, "/contact/", true},
		{"/blog/", "", "/blog/", false},
		{"/", "", "/", false},
		{"/FR/blog/", French, "/blog/", true},
		{"/En", English, "/", true},
		{"/pt/blog/", "", "/pt/blog/", false},
		{"/english/", "", "/english/", false},
	}
	for _, tt := range tests {
		loc, rest, ok := Resolve(tt.path)
		if loc != tt.wantLoc || rest != tt.wantRest || ok != tt.wantOK {
			t.Errorf("Resolve(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, loc, rest, ok, tt.wantLoc, tt.wantRest, tt.wantOK)
		}
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header   string
		fallback Locale
		want     Locale
	}{
		{"", English, English},
		{"", Vietnamese, Vietnamese},
		{"fr-CH, fr;q=0.9, en;q=0.8", Vietnamese, French},
		{"de", English, German},
		{"vi-VN,vi;q=0.9", English, Vietnamese},
		{"ja-JP", English, Japanese},
		{"es-ES,es;q=0.9", English, Spanish},
		{"en-US,en;q=0.9", German, English},
		{"zh-CN", English, English},
		{"zh-CN", Vietnamese, Vietnamese},
		{";;;garbage", Spanish, Spanish},
		{"zh-CN", "xx", English},
	}
	for _, tt := range tests {
		if got := Negotiate(tt.header, tt.fallback); got != tt.want {
			t.Errorf("Negotiate(%q, %q) = %q, want %q", tt.header, tt.fallback, got, tt.want)
		}
	}
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		loc  Locale
		path string
		want string
	}{
		{French, "/", "/fr/"},
		{French, "", "/fr/"},
		{German, "/blog/", "/de/blog/"},
		{Spanish, "/en/blog/post/", "/es/blog/post/"},
		{Japanese, "about/", "/ja/about/"},
		{"xx", "/blog/", "/en/blog/"},
	}
	for _, tt := range tests {
		if got := Localize(tt.loc, tt.path); got != tt.want {
			t.Errorf("Localize(%q, %q) = %q, want %q", tt.loc, tt.path, got, tt.want)
		}
	}
}

func TestLocales(t *testing.T) {
	locs := Locales()
	if len(locs) != 6 {
		t.Fatalf("len(Locales()) = %d, want 6", len(locs))
	}
	if locs[0] != Default {
		t.Errorf("Locales()[0] = %q, want default %q", locs[0], Default)
	}
	for _, l := range locs {
		if !l.Valid() || l.Name() == "" {
			t.Errorf("locale %q incomplete", l)
		}
	}
	locs[0] = "xx"
	if Locales()[0] != Default {
		t.Error("Locales() must return a copy")
	}
}

func TestParse(t *testing.T) {
	if l, ok := Parse("DE"); !ok || l != German {
		t.Errorf("Parse(DE) = %q, %v", l, ok)
	}
	if _, ok := Parse("pt"); ok {
		t.Error("Parse(pt) should fail")
	}
}
