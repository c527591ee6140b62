package version

import (
	"errors"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want Ordering
	}{
		{"equal", "1.9.1", "1.9.1", Equal},
		{"padded equal", "3.10", "3.10.0", Equal},
		{"padded equal reversed", "3.10.0.0", "3.10", Equal},
		{"single segment", "4", "4.0.0", Equal},
		{"kernel too old", "3.8.0", "3.10", Less},
		{"kernel new enough", "5.15.0", "3.10", Greater},
		{"numeric not lexical", "1.10.0", "1.9.1", Greater},
		{"shorter is greater", "2", "1.99.99", Greater},
		{"longer is greater", "1.0.0.1", "1", Greater},
		{"zero minimum", "3.3.17", "0.0", Greater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare(%q, %q) error = %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareMalformed(t *testing.T) {
	inputs := []string{"", "1..2", "1.x", "v1.2", "1.-2", "1.+2", "procps-ng", "1.2 "}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Compare(in, "1.0")
			if !errors.Is(err, ErrMalformedVersion) {
				t.Fatalf("Compare(%q) error = %v, want ErrMalformedVersion", in, err)
			}

			var mErr *MalformedVersionError
			if !errors.As(err, &mErr) {
				t.Fatalf("error %T is not *MalformedVersionError", err)
			}
			if mErr.Input != in {
				t.Errorf("Input = %q, want %q", mErr.Input, in)
			}

			// Malformed right-hand side is reported too
			if _, err := Compare("1.0", in); !errors.Is(err, ErrMalformedVersion) {
				t.Errorf("Compare(1.0, %q) error = %v, want ErrMalformedVersion", in, err)
			}
		})
	}
}

// Comparing versions of differing lengths must equal comparing their padded forms.
func TestComparePaddingEquivalence(t *testing.T) {
	pairs := [][2]string{
		{"3.10", "3.10.0"},
		{"1", "1.0.1"},
		{"2.1", "2.0.9.9"},
		{"0.0", "0.0.0.0.1"},
	}

	for _, p := range pairs {
		va, err := Parse(p[0])
		if err != nil {
			t.Fatal(err)
		}
		vb, err := Parse(p[1])
		if err != nil {
			t.Fatal(err)
		}
		n := max(len(va), len(vb))

		got, _ := Compare(p[0], p[1])
		padded, _ := Compare(va.Pad(n).String(), vb.Pad(n).String())
		if got != padded {
			t.Errorf("Compare(%q, %q) = %v, padded compare = %v", p[0], p[1], got, padded)
		}
	}
}

func TestCompareTotalOrder(t *testing.T) {
	versions := []string{"0", "0.1", "1", "1.0.1", "1.9", "1.9.1", "1.10", "1.10.0.1", "2", "3.10", "10.0"}

	for _, a := range versions {
		for _, b := range versions {
			ab, _ := Compare(a, b)
			ba, _ := Compare(b, a)
			if ab != -ba {
				t.Errorf("antisymmetry: Compare(%s,%s)=%v but Compare(%s,%s)=%v", a, b, ab, b, a, ba)
			}

			for _, c := range versions {
				bc, _ := Compare(b, c)
				ac, _ := Compare(a, c)
				if ab == Less && bc == Less && ac != Less {
					t.Errorf("transitivity: %s < %s < %s but Compare(%s,%s)=%v", a, b, c, a, c, ac)
				}
			}
		}
	}
}

func TestPadNeverTruncates(t *testing.T) {
	v := Version{1, 2, 3, 4}
	if got := v.Pad(2); len(got) != 4 {
		t.Errorf("Pad(2) len = %d, want 4", len(got))
	}
	if got := v.Pad(6).String(); got != "1.2.3.4.0.0" {
		t.Errorf("Pad(6) = %s, want 1.2.3.4.0.0", got)
	}
	if v.String() != "1.2.3.4" {
		t.Errorf("Pad modified receiver: %s", v)
	}
}

func TestAtLeast(t *testing.T) {
	ok, err := AtLeast("1.7", "1.7.0")
	if err != nil || !ok {
		t.Errorf("AtLeast(1.7, 1.7.0) = %v, %v; want true", ok, err)
	}

	ok, err = AtLeast("1.6.9", "1.7")
	if err != nil || ok {
		t.Errorf("AtLeast(1.6.9, 1.7) = %v, %v; want false", ok, err)
	}
}
