package entities

import (
	"encoding/json"
	"time"
)

// É o item hierárquico (departamento ou conta financeira) como vem do store.
type Record struct {
	ID             int64   `json:"id"`
	AccountID      int64   `json:"account_id"`
	Kind           Kind    `json:"kind"`
	SerialID       string  `json:"serial_id"`
	ParentSerialID *string `json:"parent_serial_id,omitempty"`
	Name           string  `json:"name"`
	// Nome do tipo/categoria (ex: tipo da conta financeira). Participa da busca.
	TypeName string `json:"type_name,omitempty"`
	// Atributos que o builder não interpreta (descrição, saldo, moeda, flags...).
	Properties json.RawMessage `json:"properties,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// HasParent reports whether the record points at a parent serial id.
func (r Record) HasParent() bool {
	return r.ParentSerialID != nil && *r.ParentSerialID != ""
}

// ParentKey returns the parent serial id or "" for roots.
func (r Record) ParentKey() string {
	if !r.HasParent() {
		return ""
	}
	return *r.ParentSerialID
}

// Clone copia o registro sem compartilhar o ponteiro do pai nem o buffer das properties.
func (r Record) Clone() Record {
	out := r
	if r.ParentSerialID != nil {
		parent := *r.ParentSerialID
		out.ParentSerialID = &parent
	}
	if r.Properties != nil {
		out.Properties = append(json.RawMessage(nil), r.Properties...)
	}
	return out
}
