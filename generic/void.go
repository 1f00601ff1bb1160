package generic

// Void is a zero-size placeholder value, e.g. for set membership.
type Void struct{}
