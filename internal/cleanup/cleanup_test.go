package cleanup

import (
	"errors"
	"testing"
)

type closer struct{ closed *[]string }

func (c closer) Close() error {
	*c.closed = append(*c.closed, "closer")
	return nil
}

func TestRunAll_LIFOAndErrors(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	Register(func() error { order = append(order, "first"); return nil })
	RegisterCloser(closer{closed: &order})
	Register(func() error { order = append(order, "last"); return boom })
	Register(nil)

	err := RunAll()
	if !errors.Is(err, boom) {
		t.Fatalf("RunAll() = %v, want boom", err)
	}
	want := []string{"last", "closer", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if err := RunAll(); err != nil {
		t.Fatalf("second RunAll() = %v", err)
	}
}
