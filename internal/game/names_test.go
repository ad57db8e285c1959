// internal/game/names_test.go
package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateName(t *testing.T) {
	name := GenerateName(&seqRNG{vals: []int{0, 6, 5}})
	assert.Equal(t, "brave-green-dolphin", name)

	parts := strings.Split(GenerateName(nil), "-")
	assert.Len(t, parts, 3)
}
