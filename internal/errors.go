package internal

import "errors"

var ErrSlugTaken = errors.New("slug already taken")
var ErrNotFound = errors.New("link not found")
var ErrInvalidURL = errors.New("invalid url")
var ErrInvalidSlug = errors.New("invalid slug")
