// Package ordering keeps annotation z-indices consistent with a list that was
// reordered by drag and drop.
//
// The annotation list is shown in display order, which is the reverse of
// storage order: the most recently drawn annotation sits on top and is listed
// first. Reorder works on the list it is given, then converts it to storage
// order and assigns z-indices from 0.
package ordering

import (
	"sort"

	"github.com/menta2k/pose-template/pkg/types"
)

// Move returns a copy of list with the element at from moved to index to.
// Out-of-range indices return an unchanged copy.
func Move[T any](list []T, from, to int) []T {
	out := append([]T(nil), list...)
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) || from == to {
		return out
	}

	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// DisplayToStorage converts a list in display order into storage order
func DisplayToStorage[T any](list []T) []T {
	return reversed(list)
}

// StorageToDisplay converts a list in storage order into display order
func StorageToDisplay[T any](list []T) []T {
	return reversed(list)
}

func reversed[T any](list []T) []T {
	out := make([]T, len(list))
	for i, item := range list {
		out[len(list)-1-i] = item
	}
	return out
}

// Reorder moves the annotation at from to to and returns the annotations in
// storage order with z-indices 0..n-1.
func Reorder(annotations []types.Annotation, from, to int) []types.Annotation {
	storage := DisplayToStorage(Move(annotations, from, to))
	for i := range storage {
		storage[i].ZIndex = i
	}
	return storage
}

// SortByZIndex returns the annotations ordered by ascending z-index, the
// order in which they are painted.
func SortByZIndex(annotations []types.Annotation) []types.Annotation {
	out := append([]types.Annotation(nil), annotations...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
