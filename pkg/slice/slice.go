// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with the generic
helpers the relationship engine uses on ordered identifier sequences.
*/
package slice

// Map maps a slice of type T to a slice of type U.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Filter returns the elements for which predicate is true, preserving order.
// The result is never nil so an emptied sequence still encodes as [].
func Filter[T any](input []T, predicate func(T) bool) []T {
	result := make([]T, 0, len(input))
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}
	return result
}

// Unique drops repeated elements, keeping the first occurrence of each.
func Unique[T comparable](input []T) []T {
	seen := make(map[T]struct{}, len(input))
	return Filter(input, func(v T) bool {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
		return true
	})
}

// Set builds a membership set from input.
func Set[T comparable](input []T) map[T]struct{} {
	set := make(map[T]struct{}, len(input))
	for _, v := range input {
		set[v] = struct{}{}
	}
	return set
}

// Difference returns the elements of input absent from exclude, preserving order.
func Difference[T comparable](input, exclude []T) []T {
	excluded := Set(exclude)
	return Filter(input, func(v T) bool {
		_, ok := excluded[v]
		return !ok
	})
}
