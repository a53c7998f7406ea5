package buckle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentImplies(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Component
		expected bool
	}{
		{"dctrue implies anything", DCTrue(), NewComponent([]string{"Dwaha"}), true},
		{"dctrue implies dcfalse", DCTrue(), DCFalse(), false},
		{"anything implies dctrue requires weaker clause", NewComponent([]string{"Dwaha"}), DCTrue(), false},
		{"equal single clause implies itself", NewComponent([]string{"Dwaha"}), NewComponent([]string{"Dwaha"}), true},
		{"subset clause implies superset clause", NewComponent([]string{"Dwaha"}), NewComponent([]string{"Dwaha", "Bob"}), true},
		{"superset does not imply subset", NewComponent([]string{"Dwaha", "Bob"}), NewComponent([]string{"Dwaha"}), false},
		{"dcfalse implies only dcfalse", DCFalse(), DCFalse(), true},
		{"dcfalse does not imply dctrue", DCFalse(), DCTrue(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Implies(tt.b))
		})
	}
}

func TestComponentAnd(t *testing.T) {
	alice := NewComponent([]string{"Alice"})
	bob := NewComponent([]string{"Bob"})

	combined := alice.And(bob)
	assert.True(t, alice.Implies(combined))
	assert.True(t, bob.Implies(combined))
	assert.True(t, combined.Implies(alice) == false || alice.Equal(combined))
}

func TestComponentAndWithDCTrue(t *testing.T) {
	dwaha := NewComponent([]string{"Dwaha"})
	assert.True(t, DCTrue().And(dwaha).Equal(dwaha))
	assert.True(t, dwaha.And(DCTrue()).Equal(dwaha))
}

func TestComponentParsePrintRoundTrip(t *testing.T) {
	tests := []Component{
		DCTrue(),
		DCFalse(),
		NewComponent([]string{"Dwaha"}),
		NewComponent([]string{"Alice", "Bob"}),
		NewComponent([]string{"Alice"}, []string{"Bob"}),
	}
	for _, c := range tests {
		parsed, ok := ParseComponent(c.String())
		assert.True(t, ok)
		assert.True(t, parsed.Equal(c), "round trip mismatch for %s", c.String())
	}
}

func TestParseComponentRejectsEmptyPrincipal(t *testing.T) {
	_, ok := ParseComponent("Alice&")
	assert.False(t, ok)
}
