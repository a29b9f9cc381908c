package model

import "errors"

// ErrModel is the sentinel for layer-declaration and document-shape
// violations (spec.md §7's ModelError). Wrap with fmt.Errorf("...: %w", ErrModel)
// to add context; callers use errors.Is(err, ErrModel) to classify it.
var ErrModel = errors.New("model: invariant violation")

// ErrInvalidEnumValue is spec.md §7's InvalidEnumValue.
var ErrInvalidEnumValue = errors.New("model: value not in declared enum")
