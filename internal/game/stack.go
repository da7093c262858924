package game

// StackItem is a pending effect resolution.
type StackItem struct {
	Source  TimedObjectID
	ID      EffectID
	Handler StackHandler
}

// Stack is the LIFO resolution stack.
type Stack struct {
	items []*StackItem
}

func (s *Stack) Push(items ...*StackItem) {
	s.items = append(s.items, items...)
}

// Pop removes and returns the top item, or nil if the stack is empty.
func (s *Stack) Pop() *StackItem {
	if len(s.items) == 0 {
		return nil
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top
}

func (s *Stack) Len() int { return len(s.items) }

func (s *Stack) IsEmpty() bool { return len(s.items) == 0 }

// Items returns the entries bottom first.
func (s *Stack) Items() []*StackItem {
	return append([]*StackItem(nil), s.items...)
}

// HasSource reports whether any entry was pushed by card id.
func (s *Stack) HasSource(id ObjectID) bool {
	for _, it := range s.items {
		if it.Source.ID == id {
			return true
		}
	}
	return false
}
