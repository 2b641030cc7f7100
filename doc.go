/*
Package forthcore implements an embeddable Forth interpreter: a
threaded-code virtual machine executing over a single contiguous cell
array, together with a small compiler that reads space-delimited source
text and appends word definitions to an in-memory dictionary.

The design follows a single register-indexed array discipline
throughout: registers, the input word buffer, the dictionary, and both
stacks are all just index ranges of one []Cell. There is no separate
heap, no garbage collector, and no pointer type distinct from a cell
index — see DESIGN.md for why that shape was kept from the project this
package grew out of.

A VM image is created with New, fed source through Eval or Run, and may
be serialized with SaveCore and resumed later with LoadCore. Images are
pinned to this build's cell width and byte order; LoadCore refuses any
other image outright.
*/
package forthcore
