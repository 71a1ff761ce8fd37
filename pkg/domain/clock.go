package domain

import "time"

// Clock is the view of a time source that other roles depend on.
type Clock interface {
	Now() time.Time
}
