package activation

import "sync"

type frame struct {
	key   string
	label string
}

// Stack is the chain of contexts currently being activated in one pass.
// Push and Pop must come from the goroutine that owns the pass.
type Stack struct {
	mu     sync.Mutex
	frames []frame
}

func NewStack() *Stack {
	return &Stack{}
}

// Push adds key to the stack. If key is already in progress it returns false
// and the labels of the cycle, starting and ending with the repeated entry.
func (s *Stack) Push(key, label string) (bool, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.frames {
		if f.key != key {
			continue
		}
		cycle := make([]string, 0, len(s.frames)-i+1)
		for _, g := range s.frames[i:] {
			cycle = append(cycle, g.label)
		}
		return false, append(cycle, label)
	}

	s.frames = append(s.frames, frame{key: key, label: label})
	return true, nil
}

func (s *Stack) Pop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.frames); n > 0 {
		s.frames = s.frames[:n-1]
	}
}

func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.frames)
}

// Path returns the labels from the outermost to the innermost frame.
func (s *Stack) Path() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := make([]string, len(s.frames))
	for i, f := range s.frames {
		path[i] = f.label
	}
	return path
}
