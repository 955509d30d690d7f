package media

import "testing"

func TestParseAssetURL(t *testing.T) {
	cases := []struct {
		name         string
		url          string
		publicID     string
		resourceType string
		ok           bool
	}{
		{
			name:         "image with version and folder",
			url:          "https://res.cloudinary.com/demo/image/upload/v1712345678/testimonials/42/abc-123.png",
			publicID:     "testimonials/42/abc-123",
			resourceType: "image",
			ok:           true,
		},
		{
			name:         "video asset",
			url:          "https://res.cloudinary.com/demo/video/upload/v1/testimonials/7/clip.mp4",
			publicID:     "testimonials/7/clip",
			resourceType: "video",
			ok:           true,
		},
		{
			name:         "no version segment",
			url:          "https://res.cloudinary.com/demo/image/upload/testimonials/42/abc.jpg",
			publicID:     "testimonials/42/abc",
			resourceType: "image",
			ok:           true,
		},
		{name: "missing upload segment", url: "https://res.cloudinary.com/demo/image/abc.png"},
		{name: "nothing after upload", url: "https://res.cloudinary.com/demo/image/upload"},
		{name: "not a url", url: "://nope"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, rt, ok := parseAssetURL(tc.url)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !tc.ok {
				return
			}
			if id != tc.publicID {
				t.Errorf("publicID = %q, want %q", id, tc.publicID)
			}
			if rt != tc.resourceType {
				t.Errorf("resourceType = %q, want %q", rt, tc.resourceType)
			}
		})
	}
}

func TestSupportedType(t *testing.T) {
	for _, ct := range []string{"image/png", "image/jpeg", "video/mp4"} {
		if !SupportedType(ct) {
			t.Errorf("SupportedType(%q) = false, want true", ct)
		}
	}
	for _, ct := range []string{"application/pdf", "text/html", "", "audio/mpeg"} {
		if SupportedType(ct) {
			t.Errorf("SupportedType(%q) = true, want false", ct)
		}
	}
}
