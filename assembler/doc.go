/*
Package assembler turns gx source into a gx image.

Process of assembly

	Source Text ->
		macro ->
	Expanded Text ->
		parse ->
	Syntax Tree (ast) ->
		eval ->
	Image with placeholders ->
		backpatch ->
	Image (.gxa)

Every stage runs once, in order, on a single goroutine.
*/
package assembler
