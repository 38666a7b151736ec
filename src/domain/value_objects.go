package domain

import (
	"encoding/json"
	"errors"
	"time"

	"backoffice/src/domain/entities"
)

var (
	ErrRecordNotFound = errors.New("record not found")

	ErrParentNotFound = errors.New("parent record not found")

	ErrDuplicateSerialID = errors.New("serial id already in use")

	ErrCycleDetected = errors.New("parent would create a cycle in the hierarchy")

	ErrRecordHasChildren = errors.New("record still has children")

	ErrInvalidRecord = errors.New("invalid record")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// Scope identifica uma hierarquia: um tenant e um tipo de registro.
type Scope struct {
	AccountID int64         `json:"account_id"`
	Kind      entities.Kind `json:"kind"`
}

// ############################################################
// ############## PROCESSO DE MONTAGEM DA ÁRVORE ##############
// ############################################################

// Node é a versão navegável de um Record. Só existem ponteiros pai -> filho.
type Node struct {
	entities.Record

	Children   []*Node `json:"children"`
	Level      int     `json:"level"`
	Expandable bool    `json:"expandable"`
}

// Assembly é o resultado de uma montagem: a floresta e a sua projeção plana (pre-order).
type Assembly struct {
	Forest []*Node
	Flat   []*Node
}

func (a Assembly) IsEmpty() bool {
	return len(a.Forest) == 0
}

// PropertyFilter restringe a carga a registros cujas properties contêm Path = Value.
// Path usa pontos para objetos aninhados (ex: "flags.is_active").
type PropertyFilter struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ActiveOnly é o filtro usado pelas telas de contas financeiras.
var ActiveOnly = PropertyFilter{Path: "is_active", Value: true}

// RecordPage alimenta os selects paginados ({list, count}).
type RecordPage struct {
	List  []entities.Record `json:"list"`
	Count int               `json:"count"`
}

// ############################################################
// ############## PROCESSO DE ESCRITA DOS REGISTROS ###########
// ############################################################

// RecordInput carrega os campos editáveis de um registro.
type RecordInput struct {
	Scope
	SerialID       string
	ParentSerialID *string
	Name           string
	TypeName       string
	Properties     json.RawMessage
}

// SyncRecordDTO define um registro recebido pela ingestão em lote.
type SyncRecordDTO struct {
	AccountID      int64
	Kind           entities.Kind
	SerialID       string
	ParentSerialID *string
	Name           string
	TypeName       string
	Properties     json.RawMessage
	Deleted        bool
}

func (dto SyncRecordDTO) Scope() Scope {
	return Scope{AccountID: dto.AccountID, Kind: dto.Kind}
}

// SyncRecordsRequest é o DTO completo que o serviço usa para solicitar uma sincronização.
type SyncRecordsRequest struct {
	Records []SyncRecordDTO
}

// ############################################################
// ################### EVENTOS DE DOMÍNIO #####################
// ############################################################

const TableHierarchyRecords = "hierarchy_records"

const (
	OperationInsert = "INSERT"
	OperationUpdate = "UPDATE"
	OperationDelete = "DELETE"
)

const (
	EventRecordCreated = "hierarchy.record.created"
	EventRecordUpdated = "hierarchy.record.updated"
	EventRecordMoved   = "hierarchy.record.moved"
	EventRecordDeleted = "hierarchy.record.deleted"
)

// DomainEvent é o envelope publicado para os consumidores downstream.
type DomainEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SchemaVersion string          `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Scope         Scope           `json:"scope"`
	SerialID      string          `json:"serial_id"`
	FieldsChanged []string        `json:"fields_changed,omitempty"`
	Before        json.RawMessage `json:"before,omitempty"`
	After         json.RawMessage `json:"after,omitempty"`
}
