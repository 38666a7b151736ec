package http

import (
	"encoding/json"
	"time"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

type RecordDTO struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account_id"`
	Kind           entities.Kind   `json:"kind"`
	SerialID       string          `json:"serial_id"`
	ParentSerialID *string         `json:"parent_serial_id"`
	Name           string          `json:"name"`
	TypeName       string          `json:"type_name,omitempty"`
	Properties     json.RawMessage `json:"properties"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type NodeDTO struct {
	RecordDTO

	Level      int        `json:"level"`
	Expandable bool       `json:"expandable"`
	Children   []*NodeDTO `json:"children"`
}

// FlatNodeDTO é a linha da visão indentada: sem filhos, só o nível.
type FlatNodeDTO struct {
	RecordDTO

	Level      int  `json:"level"`
	Expandable bool `json:"expandable"`
}

type TreeResponse struct {
	Forest []*NodeDTO     `json:"forest"`
	Flat   []*FlatNodeDTO `json:"flat"`
}

type RecordPageResponse struct {
	List  []RecordDTO `json:"list"`
	Count int         `json:"count"`
}

// RecordRequest é o corpo de criação e atualização.
type RecordRequest struct {
	SerialID       string          `json:"serial_id"`
	ParentSerialID *string         `json:"parent_serial_id"`
	Name           string          `json:"name"`
	TypeName       string          `json:"type_name"`
	Properties     json.RawMessage `json:"properties"`
}

type SyncRecordRequest struct {
	SerialID       string          `json:"serial_id"`
	ParentSerialID *string         `json:"parent_serial_id"`
	Name           string          `json:"name"`
	TypeName       string          `json:"type_name"`
	Properties     json.RawMessage `json:"properties"`
	Deleted        bool            `json:"deleted"`
}

type SyncRecordsRequest struct {
	Records []SyncRecordRequest `json:"records"`
}

func (r RecordRequest) ToInput(scope domain.Scope) domain.RecordInput {
	return domain.RecordInput{
		Scope:          scope,
		SerialID:       r.SerialID,
		ParentSerialID: r.ParentSerialID,
		Name:           r.Name,
		TypeName:       r.TypeName,
		Properties:     r.Properties,
	}
}

// ToDomain fixa o escopo da rota em todos os registros do lote.
func (r SyncRecordsRequest) ToDomain(scope domain.Scope) domain.SyncRecordsRequest {
	records := make([]domain.SyncRecordDTO, 0, len(r.Records))
	for _, record := range r.Records {
		records = append(records, domain.SyncRecordDTO{
			AccountID:      scope.AccountID,
			Kind:           scope.Kind,
			SerialID:       record.SerialID,
			ParentSerialID: record.ParentSerialID,
			Name:           record.Name,
			TypeName:       record.TypeName,
			Properties:     record.Properties,
			Deleted:        record.Deleted,
		})
	}
	return domain.SyncRecordsRequest{Records: records}
}

func MapRecordToResponse(record entities.Record) RecordDTO {
	properties := record.Properties
	if len(properties) == 0 {
		properties = json.RawMessage(`{}`)
	}

	return RecordDTO{
		ID:             record.ID,
		AccountID:      record.AccountID,
		Kind:           record.Kind,
		SerialID:       record.SerialID,
		ParentSerialID: record.ParentSerialID,
		Name:           record.Name,
		TypeName:       record.TypeName,
		Properties:     properties,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func MapRecordsToResponse(records []entities.Record) []RecordDTO {
	response := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		response = append(response, MapRecordToResponse(record))
	}
	return response
}

func MapNodeToResponse(node *domain.Node) *NodeDTO {
	if node == nil {
		return nil
	}

	children := make([]*NodeDTO, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, MapNodeToResponse(child))
	}

	return &NodeDTO{
		RecordDTO:  MapRecordToResponse(node.Record),
		Level:      node.Level,
		Expandable: node.Expandable,
		Children:   children,
	}
}

func MapAssemblyToResponse(assembly domain.Assembly) TreeResponse {
	response := TreeResponse{
		Forest: make([]*NodeDTO, 0, len(assembly.Forest)),
		Flat:   make([]*FlatNodeDTO, 0, len(assembly.Flat)),
	}

	for _, root := range assembly.Forest {
		response.Forest = append(response.Forest, MapNodeToResponse(root))
	}

	for _, node := range assembly.Flat {
		response.Flat = append(response.Flat, &FlatNodeDTO{
			RecordDTO:  MapRecordToResponse(node.Record),
			Level:      node.Level,
			Expandable: node.Expandable,
		})
	}

	return response
}
