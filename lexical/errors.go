package lexical

import "errors"

// ErrEmptyCorpus is returned when an index is requested over zero documents.
var ErrEmptyCorpus = errors.New("lexical corpus is empty")
