package snapshot

import "testing"

func TestNormalizeTypes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", AllTypes},
		{"   ", AllTypes},
		{",", AllTypes},
		{" , ,", AllTypes},
		{"image,path", "IMAGE,PATH"},
		{"PATH, Image", "IMAGE,PATH"},
		{" path , image ", "IMAGE,PATH"},
		{"paragraph", "PARAGRAPH"},
		{"text_line,,paragraph", "PARAGRAPH,TEXT_LINE"},
		{"image,image", "IMAGE,IMAGE"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTypes(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeTypes_Idempotent(t *testing.T) {
	for _, in := range []string{"", "b,a", " Form_Field , checkbox", "__ALL__"} {
		once := NormalizeTypes(in)
		if twice := NormalizeTypes(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
