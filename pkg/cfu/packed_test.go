//go:build unit

package cfu

import "testing"

func TestPackWord(t *testing.T) {
	tests := []struct {
		name     string
		b        [4]int8
		expected uint32
	}{
		{"zeros", [4]int8{0, 0, 0, 0}, 0x00000000},
		{"ascending", [4]int8{1, 2, 3, 4}, 0x04030201},
		{"negatives", [4]int8{-1, -2, -3, -4}, 0xFCFDFEFF},
		{"extremes", [4]int8{-128, 127, -128, 127}, 0x7F807F80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PackWord(tt.b[0], tt.b[1], tt.b[2], tt.b[3])
			if got != tt.expected {
				t.Errorf("PackWord(%v) = 0x%08X, expected 0x%08X", tt.b, got, tt.expected)
			}
		})
	}
}

func TestUnpackWordRoundTrip(t *testing.T) {
	values := [][4]int8{
		{0, 0, 0, 0},
		{1, 2, 3, 4},
		{-128, -1, 0, 127},
		{55, -55, 100, -100},
	}
	for _, v := range values {
		w := PackWord(v[0], v[1], v[2], v[3])
		b0, b1, b2, b3 := UnpackWord(w)
		if b0 != v[0] || b1 != v[1] || b2 != v[2] || b3 != v[3] {
			t.Errorf("round trip of %v gave (%d,%d,%d,%d)", v, b0, b1, b2, b3)
		}
	}
}

func TestPackWords(t *testing.T) {
	data := []int8{1, 2, 3, 4, -1, -2, -3, -4}
	words := PackWords(data)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0] != 0x04030201 {
		t.Errorf("word 0 = 0x%08X, expected 0x04030201", words[0])
	}
	if words[1] != 0xFCFDFEFF {
		t.Errorf("word 1 = 0x%08X, expected 0xFCFDFEFF", words[1])
	}

	back := UnpackWords(nil, words)
	if len(back) != len(data) {
		t.Fatalf("unpacked %d elements, expected %d", len(back), len(data))
	}
	for i := range data {
		if back[i] != data[i] {
			t.Errorf("element %d = %d, expected %d", i, back[i], data[i])
		}
	}
}

func TestFilterWordsPerOutputChannel(t *testing.T) {
	tests := []struct {
		inputDepth int
		expected   int
	}{
		{1, 4},
		{4, 16},
		{8, 32},
		{16, 64},
	}
	for _, tt := range tests {
		got := FilterWordsPerOutputChannel(tt.inputDepth)
		if got != tt.expected {
			t.Errorf("FilterWordsPerOutputChannel(%d) = %d, expected %d",
				tt.inputDepth, got, tt.expected)
		}
	}
}

func TestMaccIterations(t *testing.T) {
	tests := []struct {
		inputDepth int
		expected   int
	}{
		{1, 1},
		{4, 4},
		{8, 8},
	}
	for _, tt := range tests {
		got := MaccIterations(tt.inputDepth)
		if got != tt.expected {
			t.Errorf("MaccIterations(%d) = %d, expected %d", tt.inputDepth, got, tt.expected)
		}
	}
	// One iteration consumes 16 elements: the window size times iterations
	// must equal the per-channel kernel volume.
	for _, depth := range []int{1, 4, 8, 32} {
		if MaccIterations(depth)*MaccInputSize != FilterHeight*FilterWidth*depth {
			t.Errorf("iteration count does not cover kernel volume at depth %d", depth)
		}
	}
}
