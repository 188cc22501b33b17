package rescore

// restoreStep is one command in the session-restoration sequence run
// immediately after a fresh connect, before the endpoint is allowed to
// flush any buffered user command. fatal marks a step whose failure closes
// the endpoint outright instead of falling back to reconnect.
type restoreStep struct {
	cmd   *Command
	fatal bool
}

// buildRestoreSteps assembles the PING/AUTH/SELECT/SUBSCRIBE replay
// sequence for one connection attempt, per the endpoint's configuration
// and a snapshot of its current subscription set. AUTH is the only fatal
// step: a bad password can never be fixed by reconnecting.
func (e *Endpoint) buildRestoreSteps() []restoreStep {
	var steps []restoreStep

	if e.config.PingBeforeActivateConnection {
		steps = append(steps, restoreStep{cmd: NewCommand("PING", NewStatusOutput("PING"))})
	}
	if e.config.Password != "" {
		steps = append(steps, restoreStep{
			cmd:   NewCommand("AUTH", NewOKOutput("AUTH", e.config.Password)),
			fatal: true,
		})
	}
	if e.config.DB != 0 {
		steps = append(steps, restoreStep{cmd: NewCommand("SELECT", NewOKOutput("SELECT", e.config.DB))})
	}

	if e.subs != nil {
		channels, patterns := e.subs.snapshot()
		for _, name := range channels {
			steps = append(steps, restoreStep{
				cmd: NewCommand("SUBSCRIBE", NewSubscribeAckOutput("SUBSCRIBE", name)),
			})
		}
		for _, pattern := range patterns {
			steps = append(steps, restoreStep{
				cmd: NewCommand("PSUBSCRIBE", NewSubscribeAckOutput("PSUBSCRIBE", pattern)),
			})
		}
	}

	return steps
}
