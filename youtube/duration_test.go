package youtube

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"hours minutes seconds", "PT1H2M3S", 3723},
		{"seconds only", "PT45S", 45},
		{"minutes only", "PT2M", 120},
		{"hours only", "PT3H", 10800},
		{"minutes seconds", "PT10M30S", 630},
		{"zero", "PT0S", 0},
		{"empty", "", 0},
		{"garbage", "not-a-duration", 0},
		{"date component unsupported", "P1DT2H", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseISODuration(tt.in); got != tt.want {
				t.Errorf("ParseISODuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatISODuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{3723, "PT1H2M3S"},
		{45, "PT45S"},
		{120, "PT2M"},
		{0, "PT0S"},
		{-5, "PT0S"},
	}

	for _, tt := range tests {
		if got := FormatISODuration(tt.seconds); got != tt.want {
			t.Errorf("FormatISODuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

// Formatting a parsed duration and parsing it again must give the same
// seconds back.
func TestDurationRoundTrip(t *testing.T) {
	for _, in := range []string{"PT1H2M3S", "PT45S", "PT2M", "PT59M59S", "PT25H"} {
		seconds := ParseISODuration(in)
		if got := ParseISODuration(FormatISODuration(seconds)); got != seconds {
			t.Errorf("round trip of %q: got %d, want %d", in, got, seconds)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{3723, "1:02:03"},
		{245, "4:05"},
		{59, "0:59"},
		{600, "10:00"},
		{3600, "1:00:00"},
		{0, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		seconds int
		want    int
	}{
		{0, 0},
		{29, 0},
		{30, 1},
		{90, 2},
		{3723, 62},
	}

	for _, tt := range tests {
		if got := DurationMinutes(tt.seconds); got != tt.want {
			t.Errorf("DurationMinutes(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}
