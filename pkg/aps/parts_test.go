package aps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/revitview/pkg/aps"
)

const mib = int64(1 << 20)

func TestPartCount(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want int
	}{
		{"one byte", 1, 1},
		{"5 MiB", 5 * mib, 1},
		{"exactly single part limit", 100 * mib, 1},
		{"one byte over limit", 100*mib + 1, 11},
		{"150 MiB", 150 * mib, 15},
		{"151 MiB rounds up", 151 * mib, 16},
		{"capped at max parts", 200_000 * mib, aps.MaxParts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aps.PartCount(tt.size, aps.DefaultSinglePartLimit, aps.DefaultPartSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartRanges(t *testing.T) {
	tests := []struct {
		name  string
		size  int64
		count int
	}{
		{"single part", 2500, 1},
		{"even split", 3000, 3},
		{"remainder in last part", 2500, 3},
		{"large file", 150*mib + 7, 15},
		{"more parts than bytes", 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := aps.PartRanges(tt.size, tt.count)
			assert.Len(t, parts, tt.count)

			chunk := tt.size / int64(tt.count)
			var next, total int64

			for i, p := range parts {
				assert.Equal(t, i, p.Index)
				assert.Equal(t, next, p.Offset, "part %d not contiguous", i)
				if i < len(parts)-1 {
					assert.Equal(t, chunk, p.Length, "part %d size", i)
				}
				next = p.Offset + p.Length
				total += p.Length
			}

			assert.Equal(t, tt.size, total)
		})
	}
}
