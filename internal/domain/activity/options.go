package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ObjectID *int64
	Kind     *Kind
	Author   string
	Limit    int
	Offset   int
}
