package certid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive("CS-2024-117", "Distributed Systems", "Test University")
	b := Derive("CS-2024-117", "Distributed Systems", "Test University")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "0x"))
	assert.Len(t, a, 66)
	assert.True(t, Valid(a))
}

func TestDeriveDistinguishesInputs(t *testing.T) {
	base := Derive("CS-2024-117", "Distributed Systems", "Test University")
	assert.NotEqual(t, base, Derive("CS-2024-118", "Distributed Systems", "Test University"))
	assert.NotEqual(t, base, Derive("CS-2024-117", "Operating Systems", "Test University"))
	assert.NotEqual(t, base, Derive("CS-2024-117", "Distributed Systems", "Other University"))
}

func TestValid(t *testing.T) {
	tests := []struct {
		claimed string
		want    bool
	}{
		{"0x" + strings.Repeat("a", 64), true},
		{"0x" + strings.Repeat("A", 64), true},
		{"0x" + strings.Repeat("a", 63), false},
		{"0x" + strings.Repeat("a", 65), false},
		{"0x" + strings.Repeat("g", 64), false},
		{strings.Repeat("a", 66), false},
		{"CERT-2019-0042", true},
		{"CERT-", false},
		{"cert-2019-0042", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.claimed), "claimed %q", tt.claimed)
	}
}

func TestNormalize(t *testing.T) {
	mixed := "0x" + strings.Repeat("Ab", 32)
	assert.Equal(t, "0x"+strings.Repeat("ab", 32), Normalize(mixed))
	assert.Equal(t, "CERT-2019-0042", Normalize("CERT-2019-0042"))
	assert.Equal(t, "garbage", Normalize("garbage"))
}
