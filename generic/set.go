package generic

// Set is an unordered collection of distinct items. Implementations are not safe for concurrent use.
type Set[T any] interface {
	// Add returns false if item was already present.
	Add(item T) bool
	// Contains returns true only if every one of items is present.
	Contains(items ...T) bool
	Count() int
	// Remove returns false if item was not present.
	Remove(item T) bool
	ToSlice() []T
}

// NewSet returns a Set keyed directly on T.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(set[T], len(items))
	for _, item := range items {
		s.Add(item)
	}
	return &s
}

type set[T comparable] map[T]Void

func (s *set[T]) Add(item T) bool {
	if _, found := (*s)[item]; found {
		return false
	}
	(*s)[item] = Void{}
	return true
}

func (s *set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := (*s)[item]; !found {
			return false
		}
	}
	return true
}

func (s *set[T]) Count() int {
	return len(*s)
}

func (s *set[T]) Remove(item T) bool {
	if _, found := (*s)[item]; !found {
		return false
	}
	delete(*s, item)
	return true
}

func (s *set[T]) ToSlice() []T {
	items := make([]T, 0, len(*s))
	for item := range *s {
		items = append(items, item)
	}
	return items
}

// NewPolymorphicSet returns a Set for interface types such as dlhelper.Item, keyed on the dynamic value. Every
// item's dynamic type must be comparable.
func NewPolymorphicSet[T any](items ...T) Set[T] {
	s := make(polymorphicSet[T], len(items))
	for _, item := range items {
		s.Add(item)
	}
	return &s
}

type polymorphicSet[T any] map[any]Void

func (s *polymorphicSet[T]) Add(item T) bool {
	if _, found := (*s)[item]; found {
		return false
	}
	(*s)[item] = Void{}
	return true
}

func (s *polymorphicSet[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := (*s)[item]; !found {
			return false
		}
	}
	return true
}

func (s *polymorphicSet[T]) Count() int {
	return len(*s)
}

func (s *polymorphicSet[T]) Remove(item T) bool {
	if _, found := (*s)[item]; !found {
		return false
	}
	delete(*s, item)
	return true
}

func (s *polymorphicSet[T]) ToSlice() []T {
	items := make([]T, 0, len(*s))
	for item := range *s {
		items = append(items, item.(T))
	}
	return items
}
