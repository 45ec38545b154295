package money

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"5000.00", 500000, false},
		{"5000", 500000, false},
		{"5000.5", 500050, false},
		{"0.01", 1, false},
		{"0", 0, false},
		{"-12.34", -1234, false},
		{".50", 50, false},
		{"22300.00", 2230000, false},
		{"1.234", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"12.x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{500000, "5000.00"},
		{1, "0.01"},
		{0, "0.00"},
		{-1234, "-12.34"},
		{2230000, "22300.00"},
		{50, "0.50"},
	}

	for _, tt := range tests {
		if got := Format(tt.cents); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123456789} {
		got, err := Parse(Format(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Errorf("round trip %d: got %d", cents, got)
		}
	}
}
