package differenceutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifferenceAndIntersectionStrings(t *testing.T) {
	onlySrc, intersection, onlyDes := DifferenceAndIntersectionStrings(
		[]string{"reset", "beep", "display"},
		[]string{"beep", "display", "clear"})

	assert.ElementsMatch(t, []string{"reset"}, onlySrc)
	assert.ElementsMatch(t, []string{"beep", "display"}, intersection)
	assert.ElementsMatch(t, []string{"clear"}, onlyDes)
}

func TestDifferenceAndIntersectionStringsEmpty(t *testing.T) {
	onlySrc, intersection, onlyDes := DifferenceAndIntersectionStrings(nil, []string{"beep"})
	assert.Empty(t, onlySrc)
	assert.Empty(t, intersection)
	assert.ElementsMatch(t, []string{"beep"}, onlyDes)
}

func TestDifferenceAndIntersectionObjects(t *testing.T) {
	type oldOp struct{ Name string }
	type newOp struct{ Name string }

	src := []*oldOp{{Name: "reset"}, {Name: "beep"}}
	des := []*newOp{{Name: "beep"}, {Name: "clear"}}

	onlySrc, intersection, onlyDes := DifferenceAndIntersectionObjects(src, des,
		func(value interface{}) string { return value.(*oldOp).Name },
		func(value interface{}) string { return value.(*newOp).Name })

	assert.ElementsMatch(t, []string{"reset"}, onlySrc)
	assert.ElementsMatch(t, []string{"beep"}, intersection)
	assert.ElementsMatch(t, []string{"clear"}, onlyDes)
}
