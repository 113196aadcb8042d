package randutil

import (
	"testing"
)

func TestUint64n(t *testing.T) {
	expect := Uint64n()

	actual := Uint64n()

	if expect == actual {
		t.Errorf("actual %v, expect %v", actual, expect)
	}
}

func TestStringN(t *testing.T) {
	expect := StringN(8)

	actual := StringN(8)

	if expect == actual {
		t.Errorf("actual %v, expect %v", actual, expect)
	}
}
