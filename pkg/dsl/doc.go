/*
Package dsl provides a Go DSL for programmatically writing mazecode programs.

It lets tests and tools describe the three program slots with a type-safe,
fluent builder instead of a level file.

Example usage:

	snap, err := dsl.New().
		Main(func(p *dsl.ProgramBuilder) {
			p.Forward().Forward().If("if_free").Call1()
		}).
		Sub1(func(p *dsl.ProgramBuilder) {
			p.Right().Forward()
		}).
		Build()

	// The snapshot can be restored into a session workspace.
	err = session.Restore(snap)
*/
package dsl
