package domain

import _ "embed"

//go:embed personas/personas.json
var defaultPersonas []byte
