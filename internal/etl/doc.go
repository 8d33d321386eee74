// Package etl runs the five load stages in order: categories, nutrients,
// foods, facts and seed content.
//
// Each stage reads one source file, filters and transforms it in memory,
// and hands the survivors to the store in a committed transaction. The ids
// that survive a stage form an immutable validity set that gates the next
// stage, so a food is only loaded when its category was, and a fact only
// when both its food and nutrient were.
//
// The fact stage writes in fixed-size chunks, committing each one. A failed
// chunk stops the stage; earlier chunks stay committed and are reported.
package etl
