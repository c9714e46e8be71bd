package model

// Vehicle is a fleet unit that carries maintenance work orders and ops tasks.
type Vehicle struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Depot string `json:"depot,omitempty" yaml:"depot,omitempty"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Technician is a maintenance resource. The scheduling core only reads
// technician ids from work orders; technicians themselves are managed outside.
type Technician struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Depot  string   `json:"depot,omitempty" yaml:"depot,omitempty"`
	Skills []string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// HasSkills reports whether the technician holds every required skill.
func (t Technician) HasSkills(required []string) bool {
	have := make(map[string]bool, len(t.Skills))
	for _, s := range t.Skills {
		have[s] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}
