package monitor

import (
	"testing"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/stretchr/testify/assert"
)

func TestTaintIsMonotone(t *testing.T) {
	m := New(buckle.DCTrue())
	before := m.CurrentLabel()

	after := m.Taint(buckle.Label{
		Secrecy:   buckle.NewComponent([]string{"Alice"}),
		Integrity: buckle.DCTrue(),
	})

	assert.True(t, before.Implies(after), "the pre-taint label always flows to the post-taint label")
}

func TestDeclassifySucceedsUnderPrivilege(t *testing.T) {
	m := New(buckle.DCTrue())
	m.Taint(buckle.Label{Secrecy: buckle.NewComponent([]string{"Dwaha"}), Integrity: buckle.DCTrue()})

	result := m.Declassify(buckle.DCTrue())
	assert.True(t, result.Equal(buckle.Public()))
}

func TestDeclassifyFailsWithoutPrivilege(t *testing.T) {
	m := New(buckle.NewComponent([]string{"Carol"}))
	tainted := m.Taint(buckle.Label{Secrecy: buckle.NewComponent([]string{"Dwaha"}), Integrity: buckle.DCTrue()})

	result := m.Declassify(buckle.DCTrue())
	assert.True(t, result.Equal(tainted))
}

func TestCheckWrite(t *testing.T) {
	m := New(buckle.DCTrue())
	assert.True(t, m.CheckWrite(buckle.Public()))

	m.Taint(buckle.Label{Secrecy: buckle.NewComponent([]string{"Dwaha"}), Integrity: buckle.DCTrue()})
	assert.False(t, m.CheckWrite(buckle.Public()))
}

func TestCanEndorse(t *testing.T) {
	m := New(buckle.DCTrue())
	assert.True(t, m.CanEndorse(buckle.NewComponent([]string{"HighIntegrity"})))

	m2 := New(buckle.DCTrue().And(buckle.DCFalse()))
	assert.False(t, m2.CanEndorse(buckle.NewComponent([]string{"HighIntegrity"})))
}
