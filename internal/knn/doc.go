// Package knn implements the per-pixel KNN denoise kernel.
//
// For an output pixel (x, y) the kernel visits every offset (i, j) of a
// square window of radius R and weighs each neighbor by
//
//	w = exp(-(|c0 - cij|² · noiseScale + (i² + j²) / A))
//
// where c0 is the center color, |·|² the squared RGB distance and A the
// window area (2R+1)². Neighbors whose weight exceeds WeightThreshold count
// as matches. The weighted average is then blended back toward the center
// color by a fraction chosen from the match fraction.
//
// Every function here is pure. A Kernel is read-only after construction and
// may be shared by any number of goroutines.
package knn
