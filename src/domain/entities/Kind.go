package entities

import "fmt"

type Kind string

const (
	KindDepartment       Kind = "department"
	KindFinancialAccount Kind = "financial_account"
)

// Segmentos de rota usados pela API REST.
var kindPathSegments = map[string]Kind{
	"departments":        KindDepartment,
	"financial-accounts": KindFinancialAccount,
}

func (k Kind) Valid() bool {
	return k == KindDepartment || k == KindFinancialAccount
}

// PathSegment returns the REST collection name of the kind.
func (k Kind) PathSegment() string {
	for segment, kind := range kindPathSegments {
		if kind == k {
			return segment
		}
	}
	return string(k)
}

// ParseKind accepts either the stored value or the REST collection name.
func ParseKind(value string) (Kind, error) {
	if kind, ok := kindPathSegments[value]; ok {
		return kind, nil
	}
	if k := Kind(value); k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown record kind %q", value)
}
