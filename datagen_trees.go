//go:build datagen_postgres || datagen_kafka_record_changes

package main

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"backoffice/src/domain/entities"

	"github.com/go-faker/faker/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Estruturas para dados mais realistas
var (
	departmentAreas = []string{"Operations", "Finance", "People", "Technology", "Sales", "Legal", "Logistics", "Marketing"}
	departmentTeams = []string{"Platform", "Payroll", "Support", "Procurement", "Treasury", "Recruiting", "Field", "Billing"}

	// Plano de contas: grupo de primeiro nível e o tipo que ele carrega
	accountGroups = []struct {
		Name     string
		TypeName string
		IsDebit  bool
	}{
		{"Assets", "Asset", true},
		{"Liabilities", "Liability", false},
		{"Equity", "Equity", false},
		{"Revenue", "Revenue", false},
		{"Expenses", "Expense", true},
	}
	currencies = []string{"BRL", "USD", "EUR"}

	title = cases.Title(language.English)
)

type treeShape struct {
	Depth  int
	Fanout int
}

func strPtr(s string) *string {
	return &s
}

func mustJSON(value map[string]interface{}) json.RawMessage {
	data, _ := json.Marshal(value)
	return data
}

// generateDepartments monta uma árvore de departamentos com serials DEP-<caminho>.
func generateDepartments(accountID int64, shape treeShape) []entities.Record {
	var records []entities.Record

	var grow func(parent *string, prefix string, level int)
	grow = func(parent *string, prefix string, level int) {
		if level > shape.Depth {
			return
		}

		children := 1 + rand.Intn(shape.Fanout)
		if level == 1 {
			children = shape.Fanout
		}

		for i := 1; i <= children; i++ {
			serial := fmt.Sprintf("%s%02d", prefix, i)

			name := departmentAreas[rand.Intn(len(departmentAreas))]
			if level > 1 {
				name = departmentTeams[rand.Intn(len(departmentTeams))] + " " + faker.LastName()
			}

			records = append(records, entities.Record{
				AccountID:      accountID,
				Kind:           entities.KindDepartment,
				SerialID:       "DEP-" + serial,
				ParentSerialID: parent,
				Name:           name,
				Properties: mustJSON(map[string]interface{}{
					"description": faker.Sentence(),
					"location":    faker.GetRealAddress().City,
				}),
			})

			grow(strPtr("DEP-"+serial), serial+".", level+1)
		}
	}

	grow(nil, "", 1)
	return records
}

// generateChartOfAccounts segue a numeração contábil: 1, 1.01, 1.01.001...
func generateChartOfAccounts(accountID int64, shape treeShape) []entities.Record {
	var records []entities.Record

	var grow func(parent string, typeName string, isDebit bool, level int)
	grow = func(parent string, typeName string, isDebit bool, level int) {
		if level > shape.Depth {
			return
		}

		width := level
		children := 1 + rand.Intn(shape.Fanout)
		for i := 1; i <= children; i++ {
			serial := fmt.Sprintf("%s.%0*d", parent, width, i)
			isLeaf := level == shape.Depth

			records = append(records, entities.Record{
				AccountID:      accountID,
				Kind:           entities.KindFinancialAccount,
				SerialID:       serial,
				ParentSerialID: strPtr(parent),
				Name:           title.String(faker.Word()) + " " + faker.LastName(),
				TypeName:       typeName,
				Properties: mustJSON(map[string]interface{}{
					"balance":            rand.Intn(10_000_000) / 100,
					"currency":           currencies[rand.Intn(len(currencies))],
					"is_active":          rand.Float32() < 0.9,
					"is_debit":           isDebit,
					"is_cash_account":    isLeaf && typeName == "Asset" && rand.Float32() < 0.2,
					"is_bank_account":    isLeaf && typeName == "Asset" && rand.Float32() < 0.3,
					"is_control_account": !isLeaf,
				}),
			})

			grow(serial, typeName, isDebit, level+1)
		}
	}

	for i, group := range accountGroups {
		serial := fmt.Sprintf("%d", i+1)
		records = append(records, entities.Record{
			AccountID: accountID,
			Kind:      entities.KindFinancialAccount,
			SerialID:  serial,
			Name:      group.Name,
			TypeName:  group.TypeName,
			Properties: mustJSON(map[string]interface{}{
				"is_active":          true,
				"is_debit":           group.IsDebit,
				"is_control_account": true,
			}),
		})
		grow(serial, group.TypeName, group.IsDebit, 2)
	}

	return records
}
