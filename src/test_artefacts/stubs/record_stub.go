package stubs

import (
	"encoding/json"
	"time"

	"backoffice/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

const DefaultAccountID int64 = 1

type RecordStub struct {
	record entities.Record
}

func NewRecordStub() RecordStub {
	now := time.Now().UTC()

	properties := map[string]interface{}{
		"description": gofakeit.Sentence(6),
	}
	propsJSON, _ := json.Marshal(properties)

	record := entities.Record{
		ID:         gofakeit.Int64(),
		AccountID:  DefaultAccountID,
		Kind:       entities.KindDepartment,
		SerialID:   gofakeit.Regex("DEP-[0-9]{6}"),
		Name:       gofakeit.JobDescriptor() + " " + gofakeit.BuzzWord(),
		Properties: propsJSON,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return RecordStub{record: record}
}

// NewFinancialAccountStub cria uma conta financeira com saldo, moeda e flags.
func NewFinancialAccountStub() RecordStub {
	properties := map[string]interface{}{
		"balance":            gofakeit.Price(0, 100000),
		"currency":           gofakeit.CurrencyShort(),
		"is_active":          true,
		"is_debit":           gofakeit.Bool(),
		"is_cash_account":    false,
		"is_bank_account":    gofakeit.Bool(),
		"is_control_account": false,
	}

	return NewRecordStub().
		WithKind(entities.KindFinancialAccount).
		WithSerialID(gofakeit.Regex("[1-9]\\.[0-9]{2}\\.[0-9]{3}")).
		WithName(gofakeit.Company() + " " + gofakeit.Noun()).
		WithTypeName(gofakeit.RandomString([]string{"Asset", "Liability", "Equity", "Revenue", "Expense"})).
		WithProperties(properties)
}

func (rs RecordStub) WithAccountID(accountID int64) RecordStub {
	rs.record.AccountID = accountID
	return rs
}

func (rs RecordStub) WithKind(kind entities.Kind) RecordStub {
	rs.record.Kind = kind
	return rs
}

func (rs RecordStub) WithSerialID(serialID string) RecordStub {
	rs.record.SerialID = serialID
	return rs
}

func (rs RecordStub) WithParent(parentSerialID string) RecordStub {
	rs.record.ParentSerialID = &parentSerialID
	return rs
}

func (rs RecordStub) WithName(name string) RecordStub {
	rs.record.Name = name
	return rs
}

func (rs RecordStub) WithTypeName(typeName string) RecordStub {
	rs.record.TypeName = typeName
	return rs
}

func (rs RecordStub) WithProperties(properties map[string]interface{}) RecordStub {
	propsJSON, _ := json.Marshal(properties)
	rs.record.Properties = propsJSON
	return rs
}

func (rs RecordStub) Get() entities.Record {
	return rs.record
}

// Record é um atalho para os cenários de árvore: só serial, pai e nome importam.
func Record(serialID string, parentSerialID string, name string) entities.Record {
	stub := NewRecordStub().WithSerialID(serialID).WithName(name)
	if parentSerialID != "" {
		stub = stub.WithParent(parentSerialID)
	}
	return stub.Get()
}
