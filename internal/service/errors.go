package service

import "errors"

// ErrEmptyQuery is returned by Submit for a query that is empty after trimming whitespace.
var ErrEmptyQuery = errors.New("please enter a question")
