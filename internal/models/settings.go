package models

// Settings are the persisted user preferences, stored in
// ~/.bsdesk/settings.yaml. Environment variables take precedence over
// anything in this file.
type Settings struct {
	// PollIntervalMS overrides the reminder poll interval when positive.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// BridgePort is the localhost port the renderer bridge listens on.
	BridgePort int `yaml:"bridge_port"`

	Updates UpdateSettings `yaml:"updates"`
}

// UpdateSettings control the auto-update orchestrator.
type UpdateSettings struct {
	// Disabled turns off scheduled update checks entirely.
	Disabled bool `yaml:"disabled"`
}

// NewSettings returns settings with defaults applied.
func NewSettings() *Settings {
	return &Settings{
		BridgePort: 8576,
	}
}
