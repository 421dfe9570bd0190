package config

var defaultConfig = Config{
	Display: "",
	Rules:   []Rule{},
}

type Config struct {
	// Display overrides the DISPLAY environment variable when set.
	Display string `json:"display" yaml:"display"`
	Rules   []Rule `json:"rules" yaml:"rules"`
}

// Rule is a policy applied to newly managed windows matched by WM_CLASS.
type Rule struct {
	UUID        string `json:"uuid" yaml:"uuid"`
	Class       string `json:"class" yaml:"class"`
	Decorations *bool  `json:"decorations" yaml:"decorations"`
	Fullscreen  bool   `json:"fullscreen" yaml:"fullscreen"`
	AlwaysOnTop bool   `json:"always_on_top" yaml:"always_on_top"`
}
