package domain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// ChairmanKey is the only persona that opens and closes meetings and the
// only transport identity that receives inbound commands.
const ChairmanKey = "Chairman"

// Persona is a fixed board identity: display data, the system instruction
// driving its language model and the name of the environment variable
// holding its transport credential. Personas are loaded once at startup
// and read-only afterwards.
type Persona struct {
	Key               string `json:"key" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Role              string `json:"role" validate:"required"`
	SystemInstruction string `json:"system_instruction" validate:"required"`
	TokenEnv          string `json:"token_env" validate:"required"`
}

// Roster is the full set of configured personas, indexed by key.
type Roster struct {
	personas map[string]Persona
}

// LoadRoster parses and validates a personas JSON document.
func LoadRoster(raw []byte) (*Roster, error) {
	var personas map[string]Persona
	if err := json.Unmarshal(raw, &personas); err != nil {
		return nil, fmt.Errorf("personas file is not valid JSON: %w", err)
	}

	validate := validator.New()
	for key, p := range personas {
		p.Key = key
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("persona %q is incomplete: %w", key, err)
		}
		personas[key] = p
	}
	if _, ok := personas[ChairmanKey]; !ok {
		return nil, fmt.Errorf("personas file defines no %s", ChairmanKey)
	}
	return &Roster{personas: personas}, nil
}

// LoadRosterFile reads the personas file at path, or the embedded default
// roster when path is empty.
func LoadRosterFile(path string) (*Roster, error) {
	if path == "" {
		return LoadRoster(defaultPersonas)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading personas file: %w", err)
	}
	return LoadRoster(raw)
}

func (r *Roster) Get(key string) (Persona, bool) {
	p, ok := r.personas[key]
	return p, ok
}

func (r *Roster) Chairman() Persona {
	return r.personas[ChairmanKey]
}

func (r *Roster) Len() int {
	return len(r.personas)
}

// All returns every configured persona, in no particular order.
func (r *Roster) All() []Persona {
	all := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		all = append(all, p)
	}
	return all
}

// Token resolves a persona's transport credential from the environment.
func (p Persona) Token() string {
	return os.Getenv(p.TokenEnv)
}
