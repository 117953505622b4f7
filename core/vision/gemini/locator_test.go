package gemini

import "testing"

func TestParsePoint(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		row  int
		col  int
	}{
		{name: "bare pair", raw: `[450, 120]`, row: 450, col: 120},
		{name: "fenced pair", raw: "```json\n[450, 120]\n```", row: 450, col: 120},
		{name: "nested candidates", raw: `[[450, 120], [9, 9]]`, row: 450, col: 120},
		{name: "keyed point", raw: `{"point": [450, 120]}`, row: 450, col: 120},
		{name: "clamped", raw: `[-3, 1400]`, row: 0, col: 1000},
		{name: "fractional", raw: `[449.7, 120.2]`, row: 449, col: 120},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			point, err := parsePoint(testCase.raw)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if point.Row != testCase.row || point.Col != testCase.col {
				t.Fatalf("expected [%d, %d], got [%d, %d]",
					testCase.row, testCase.col, point.Row, point.Col)
			}
		})
	}
}

func TestParsePointRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "the button is near the top", `[1]`, `[1, 2, 3]`, `{"box_2d": true}`} {
		if _, err := parsePoint(raw); err == nil {
			t.Fatalf("expected an error for %q", raw)
		}
	}
}
