/*
Package dsl provides a fluent builder for constructing projects in Go.

It is an alternative to JSON or YAML documents, mostly useful for tests
and for projects generated at runtime.

Example usage:

	b := dsl.New("1").Name("pizza")

	b.Add("1").MC("Hungry?").
		On("Yes", "2").
		On("No", "3")

	group := b.Add("2").OnExit("a", "3")
	menu := group.Group("a")
	menu.Add("a").Text("Which topping?").
		On("[toppings.name]", dsl.Exit).
		Set("ordered", "yes")

	b.Add("3").Text("Bye!")

	project, err := b.Build()
*/
package dsl
