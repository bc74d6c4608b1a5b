/*
Package tilbot runs dialogue flows: projects made of blocks and labeled
connectors, grouped into nested sub-graphs, with global Trigger fallbacks.

A project is loaded and validated once by an Engine. Each conversation is a
Session with its own position, group path and variables; sessions never share
mutable state, so one Engine can serve a single terminal user or thousands of
websocket clients.

# Usage

	engine, err := tilbot.Load(ctx, "project.json",
		tilbot.WithProvider(memory.New(memory.WithTable("colors", rows))),
	)
	if err != nil {
		log.Fatal(err)
	}

	s, err := engine.Start("user-1", ports.DelivererFunc(
		func(ctx context.Context, id string, msg domain.Message) error {
			fmt.Println(msg.Content, msg.Params.Options)
			return nil
		}))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	outcome, err := s.Receive(ctx, "Yes")

# Matching

MC blocks match an utterance against their connector labels exactly. Text,
List and Trigger blocks evaluate label expressions: segments joined by
" [and] ", each a plain case-insensitive substring test or a data tag
[table.column] / [!table.column] checked against a bound row or the External
Data Provider. [else] catches anything else. When nothing in the current
block matches, every Trigger block in the project is tried in order.
*/
package tilbot
