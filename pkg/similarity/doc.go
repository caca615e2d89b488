// Package similarity defines the immutable data model of multi-species
// expression comparison: genes and single-species expression calls, groups of
// evolutionarily similar anatomical entities and developmental stages, the
// multi-species conditions built from them, and the reconciled calls and
// aggregate counts produced by the engine.
//
// Every type is built once through a constructor that validates its
// invariants and copies the collections it is given. Accessors return copies,
// so values can be shared between goroutines without synchronization.
package similarity
