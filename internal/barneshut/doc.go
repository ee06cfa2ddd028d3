// Package barneshut approximates inverse-square forces among point masses
// with a Barnes-Hut quadtree.
//
// A batch goes through three steps: BoundingCell derives a square root cell
// from the bodies, Build inserts every body into a quadtree that keeps the
// mass and center of mass of each node, and a Walker visits the tree per
// query body, accepting a node as a single effective body once
// cell size / distance drops below θ. Solver bundles the three steps and can
// spread the force phase over several goroutines sharing the read-only tree.
//
// Trees are rebuilt for every batch.
package barneshut
