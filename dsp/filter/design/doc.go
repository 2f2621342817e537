// Package design computes biquad coefficients for the filter algorithms.
//
// The designs follow the Audio EQ Cookbook. Bad frequencies or sample rates
// give the zero Coefficients value.
package design
