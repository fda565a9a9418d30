package model

import "time"

// BlogPost is a markdown article shown on the public blog.
type BlogPost struct {
	ID          string
	Slug        string
	Title       string
	Body        string
	Published   bool
	PublishedAt time.Time
	UpdatedAt   time.Time
}
