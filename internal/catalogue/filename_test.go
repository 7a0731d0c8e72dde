package catalogue

import "testing"

func TestValidatePath(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		strict  bool
		wantErr bool
	}{
		{"simple name ok", "main.py", false, false},
		{"nested path ok", "src/main.py", false, false},
		{"space allowed non-strict", "my game.py", false, false},
		{"space disallowed strict", "my game.py", true, true},
		{"empty path", "", false, true},
		{"too many components", "a/b/c/d/e/f/g/h/i/j/k.py", false, true},
		{"exactly ten components ok", "a/b/c/d/e/f/g/h/i/j.py", false, false},
		{"disallowed char", "main!.py", false, true},
		{"only dots no identifier char", "...", false, true},
		{"single dot extension-only component ok", "a.py", false, false},
		{"absolute-looking leading slash yields empty component", "/main.py", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, tc.strict)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q (strict=%v), got nil", tc.path, tc.strict)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error for %q (strict=%v), got %v", tc.path, tc.strict, err)
			}
		})
	}
}

func TestValidatePath_ComponentLengthBounds(t *testing.T) {
	tooLong := make([]byte, 256)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	if err := ValidatePath(string(tooLong), false); err == nil {
		t.Fatal("expected error for 256-char component")
	}

	exactly255 := tooLong[:255]
	if err := ValidatePath(string(exactly255), false); err != nil {
		t.Fatalf("expected 255-char component to be valid, got %v", err)
	}
}
