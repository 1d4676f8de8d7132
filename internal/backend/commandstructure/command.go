package commandstructure

// Command transforms encoded image bytes into new encoded image bytes.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory builds a command from its configured parameters.
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig names a registered command and its parameters.
type CommandConfig struct {
	Name   string
	Params map[string]any
}
