// stack_test.go - Simple test-cases for our stack

package stack

import "testing"

// TestEmpty: Test that the Empty() function works as expected.
func TestEmpty(t *testing.T) {
	s := New[string]()

	if !s.Empty() {
		t.Errorf("New stack is not empty!")
	}

	s.Push("33")

	if s.Empty() {
		t.Errorf("Despite storing a value the stack is still empty!")
	}
}

// TestEmptyPop: Test that pop'ing from an empty stack fails.
func TestEmptyPop(t *testing.T) {
	s := New[string]()

	_, err := s.Pop()
	if err == nil {
		t.Errorf("Expected an error popping from an empty stack!")
	}
}

// TestPushPop: Test that we can store/retrieve as we expect.
func TestPushPop(t *testing.T) {
	s := New[string]()

	s.Push("33")

	out, err := s.Pop()
	if err != nil {
		t.Errorf("We shouldn't get an error popping from our stack")
	}
	if out != "33" {
		t.Errorf("We retrieved a value from our stack, but it was wrong")
	}
}

func TestTop(t *testing.T) {
	s := New[int]()
	s.Push(1)
	s.Push(2)

	top, err := s.Top()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top != 2 {
		t.Errorf("Top() = %d, want 2", top)
	}
	if s.Len() != 2 {
		t.Errorf("Top() must not remove the element; Len() = %d, want 2", s.Len())
	}
}

func TestLenOrdering(t *testing.T) {
	s := New[int]()
	for i := 0; i < 3; i++ {
		s.Push(i)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i := 2; i >= 0; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != i {
			t.Errorf("Pop() = %d, want %d (LIFO order)", v, i)
		}
	}
}
