package utils

import (
	"reflect"
	"testing"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		size       int
		wantChunks int
	}{
		{"empty", 0, 450, 0},
		{"single partial", 10, 450, 1},
		{"exact bound", 450, 450, 1},
		{"one over bound", 451, 450, 2},
		{"several", 1000, 450, 3},
		{"exact multiple", 900, 450, 2},
		{"unbounded", 7, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.n)
			for i := range items {
				items[i] = i
			}

			chunks := Chunk(items, tt.size)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("Chunk() returned %d chunks, want %d", len(chunks), tt.wantChunks)
			}

			var joined []int
			for _, c := range chunks {
				if tt.size > 0 && len(c) > tt.size {
					t.Errorf("chunk has %d items, bound is %d", len(c), tt.size)
				}
				joined = append(joined, c...)
			}
			if tt.n > 0 && !reflect.DeepEqual(joined, items) {
				t.Error("concatenated chunks differ from input")
			}
		})
	}
}

func TestChunk_AppendDoesNotClobber(t *testing.T) {
	items := []int{1, 2, 3, 4}
	chunks := Chunk(items, 2)
	_ = append(chunks[0], 99)
	if items[2] != 3 {
		t.Errorf("appending to a chunk overwrote the next chunk: %v", items)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 60},
		{"30", 30},
		{"abc", 60},
		{"-4", -4},
	}
	for _, tt := range tests {
		if got := ParseIntParam(tt.in, 60); got != tt.want {
			t.Errorf("ParseIntParam(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
