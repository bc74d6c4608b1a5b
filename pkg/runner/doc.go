/*
Package runner drives a single local session from a terminal or a pipe.

The Runner is the session's Deliverer: bot messages are printed by an
IOHandler (TextHandler for people, JSONHandler for programs) while Run
reads utterances, sanitizes them and hands them to the session.

# Usage

	r := runner.NewRunner(runner.WithRenderer(tui.NewRenderer()))
	s, err := engine.Start("local", r, tilbot.WithSessionHooks(r.Hooks()))
	if err != nil {
		return err
	}
	defer s.Close()
	return r.Run(ctx, s)
*/
package runner
