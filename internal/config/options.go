package config

// Option is a constraint the calculator reports back to the client for one
// parameter, e.g. that a field is read-only because a match-edge setting
// now derives it.
type Option struct {
	Type  string      `json:"type"`
	SetTo interface{} `json:"set_to"`
}

// OptionReadOnly marks a parameter as derived when SetTo is true.
const OptionReadOnly = "readonly"

// Options maps "section+field" keys to constraints.
type Options map[string]Option

// ReadOnly records whether key is currently derived.
func (o Options) ReadOnly(key string, readOnly bool) {
	o[key] = Option{Type: OptionReadOnly, SetTo: readOnly}
}

// IsReadOnly reports whether key has been marked read-only.
func (o Options) IsReadOnly(key string) bool {
	opt, ok := o[key]
	if !ok || opt.Type != OptionReadOnly {
		return false
	}
	b, _ := opt.SetTo.(bool)
	return b
}
