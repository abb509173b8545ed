package validation

import "testing"

func TestValidateCircleSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "valid with number", slug: "synth-2", ok: true},
		{name: "valid illustrators", slug: "illustrators", ok: true},
		{name: "valid zines", slug: "zines", ok: true},
		{name: "too short", slug: "ab", ok: false},
		{name: "minimum length", slug: "abc", ok: true},
		{name: "maximum length", slug: "abcdefghijklmnopqrstuvwx", ok: true},
		{name: "too long", slug: "abcdefghijklmnopqrstuvwxy", ok: false},
		{name: "uppercase", slug: "Comics", ok: false},
		{name: "underscore", slug: "pixel_art", ok: false},
		{name: "space", slug: "pixel art", ok: false},
		{name: "symbol", slug: "pixel!art", ok: false},
		{name: "leading hyphen", slug: "-zines", ok: false},
		{name: "trailing hyphen", slug: "zines-", ok: false},
		{name: "reserved admin", slug: "admin", ok: false},
		{name: "reserved api", slug: "api", ok: false},
		{name: "reserved circles", slug: "circles", ok: false},
		{name: "reserved new", slug: "new", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCircleSlug(tc.slug)
			if tc.ok && err != nil {
				t.Fatalf("expected valid slug, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid slug, got nil error")
			}
		})
	}
}
