package poly

import (
	"encoding/json"
)

// MethodSchema describes one capability method of a chain and the layer that
// contributed it.
type MethodSchema struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Owner     string `json:"owner"`
}

// LayerSchema describes one interface layer of a resolved chain.
type LayerSchema struct {
	Name        string `json:"name"`
	BufferWords int    `json:"buffer_words"`
	OwnMethods  int    `json:"own_methods"`
}

// InterfaceSchema is the serializable description of a capability chain: the
// resolved layers innermost first and the combined method table.
type InterfaceSchema struct {
	Name        string         `json:"name"`
	BufferWords int            `json:"buffer_words"`
	Layers      []LayerSchema  `json:"layers"`
	Methods     []MethodSchema `json:"methods,omitempty"`
}

// SchemaOf derives the schema of a defined interface.
func SchemaOf(def *Interface) InterfaceSchema {
	if def == nil {
		return InterfaceSchema{}
	}
	c := def.ch
	schema := InterfaceSchema{
		Name:        def.name,
		BufferWords: c.bufferWords,
		Layers:      make([]LayerSchema, 0, len(c.members)),
		Methods:     make([]MethodSchema, 0, len(c.methods)),
	}
	for _, m := range c.members {
		schema.Layers = append(schema.Layers, LayerSchema{
			Name:        m.name,
			BufferWords: m.bufWords,
			OwnMethods:  m.rt.NumMethod(),
		})
	}
	for _, cm := range c.methods {
		schema.Methods = append(schema.Methods, MethodSchema{
			Name:      cm.Name,
			Signature: cm.Type.String(),
			Owner:     cm.Owner.name,
		})
	}
	return schema
}

// ToJSON serializes the schema for logging or transport helpers.
func (s InterfaceSchema) ToJSON() ([]byte, error) {
	type alias InterfaceSchema
	return json.Marshal(alias(s))
}

// InterfaceSchemaFromJSON deserializes a payload previously generated via
// ToJSON.
func InterfaceSchemaFromJSON(payload []byte) (InterfaceSchema, error) {
	type alias InterfaceSchema
	var schema alias
	if err := json.Unmarshal(payload, &schema); err != nil {
		return InterfaceSchema{}, err
	}
	return InterfaceSchema(schema), nil
}

// Report captures the observable state of one handle for diagnostics and
// structured logs.
type Report struct {
	Chain   string `json:"chain"`
	Payload string `json:"payload,omitempty"`
	Tier    string `json:"tier"`
	Storage string `json:"storage,omitempty"`
	View    bool   `json:"view"`
	Empty   bool   `json:"empty"`
}

// Describe reports the current state of any container or view. Owning
// containers additionally report their storage placement.
func Describe(h ReadHandle) Report {
	if h == nil {
		return Report{Tier: boxAbstract.String(), Empty: true}
	}
	m := h.readModel()
	r := Report{
		Chain: h.chainOf().name(),
		View:  h.viewKind(),
		Empty: !m.valid(),
	}
	if m.vt != nil {
		r.Tier = m.vt.kind.String()
	}
	if m.valid() {
		r.Payload = m.typeInfo().Name()
	}
	if sited, ok := h.(interface{ InSitu() bool }); ok && m.valid() {
		if sited.InSitu() {
			r.Storage = storageInline.String()
		} else {
			r.Storage = storageHeap.String()
		}
	}
	return r
}

// ToJSON serializes the report for logging or transport helpers.
func (r Report) ToJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(alias(r))
}
