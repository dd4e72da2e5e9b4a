// Package typechecker implements the gradual static semantics of apyc
// programs. A resolver pass builds the lexical scope tree and binds every
// identifier occurrence to a Symbol; the checker pass then infers expression
// types, validates `::` annotations against them and finalizes a type for
// every Symbol. Unannotated code is typed Any and is never rejected for that
// reason alone.
package typechecker
