package commandstructure

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker runs a fixed sequence of commands, feeding each output into the next.
type CommandInvoker struct {
	commands []Command
}

func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{
		commands: commands,
	}
}

// NewCommandsFromConfigs builds every configured command from registry in order.
func NewCommandsFromConfigs(registry *CommandRegistry, configs []CommandConfig) ([]Command, error) {
	commands := make([]Command, 0, len(configs))
	for i, config := range configs {
		command, err := registry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to create command at index %d (%s): %w", i, config.Name, err)
		}
		commands = append(commands, command)
	}
	return commands, nil
}

// NewCommandInvokerFromConfigs builds all commands up front, so configuration
// errors surface at startup.
func NewCommandInvokerFromConfigs(registry *CommandRegistry, configs []CommandConfig) (*CommandInvoker, error) {
	commands, err := NewCommandsFromConfigs(registry, configs)
	if err != nil {
		return nil, err
	}
	return NewCommandInvoker(commands), nil
}

// Names returns the command names in execution order.
func (i *CommandInvoker) Names() []string {
	names := make([]string, 0, len(i.commands))
	for _, c := range i.commands {
		names = append(names, c.Name())
	}
	return names
}

// Execute applies all commands in order.
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	start := time.Now()

	if len(i.commands) == 0 {
		slog.Debug("no commands to execute, returning original image")
		return imageData, nil
	}

	slog.Debug("starting image processing pipeline",
		"command_count", len(i.commands),
		"input_size_bytes", len(imageData))

	currentData := imageData
	for idx, command := range i.commands {
		commandStart := time.Now()

		processedData, err := command.Execute(currentData)
		if err != nil {
			slog.Error("command execution failed",
				"index", idx,
				"command_name", command.Name(),
				"error", err,
				"input_size_bytes", len(currentData))
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}

		slog.Debug("command completed",
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds(),
			"input_size_bytes", len(currentData),
			"output_size_bytes", len(processedData))

		currentData = processedData
	}

	slog.Info("image processing pipeline completed",
		"total_duration_ms", time.Since(start).Milliseconds(),
		"command_count", len(i.commands),
		"final_size_bytes", len(currentData))

	return currentData, nil
}

// ExecuteCommands builds the configured commands from DefaultRegistry and runs them once.
func ExecuteCommands(imageData []byte, commandConfigs []CommandConfig) ([]byte, error) {
	invoker, err := NewCommandInvokerFromConfigs(DefaultRegistry, commandConfigs)
	if err != nil {
		return nil, err
	}
	return invoker.Execute(imageData)
}
