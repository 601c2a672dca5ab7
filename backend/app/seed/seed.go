// Package seed loads development fixtures: devices with known credentials
// and commands queued for them.
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"growdash-agent/backend/app/services"
	"growdash-agent/backend/global"

	"gopkg.in/yaml.v3"
)

type Command struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

type Device struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Token    string    `yaml:"token"`
	Commands []Command `yaml:"commands"`
}

type File struct {
	Devices []Device `yaml:"devices"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for i, d := range f.Devices {
		if d.ID == "" || d.Token == "" {
			return nil, fmt.Errorf("seed device #%d: id and token are required", i+1)
		}
	}
	return &f, nil
}

// Apply provisions every device and queues its commands. Devices are
// replaced; commands are appended on every run.
func Apply(f *File, devices *services.DeviceService, commands *services.CommandService) error {
	queued := 0
	for _, sd := range f.Devices {
		d, err := devices.Provision(sd.ID, sd.Name, sd.Token)
		if err != nil {
			return fmt.Errorf("provision %s: %w", sd.ID, err)
		}
		for _, sc := range sd.Commands {
			params, err := json.Marshal(sc.Params)
			if err != nil {
				return fmt.Errorf("encode params for %s: %w", sd.ID, err)
			}
			if _, err := commands.Enqueue(d, sc.Type, params); err != nil {
				return fmt.Errorf("queue %s command for %s: %w", sc.Type, sd.ID, err)
			}
			queued++
		}
	}
	global.Logger.Info().Int("devices", len(f.Devices)).Int("commands", queued).Msg("seed applied")
	return nil
}
