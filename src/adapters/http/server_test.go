package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	adapter "backoffice/src/adapters/http"
	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/services/hierarchy"
	"backoffice/src/test_artefacts/fakes"
	"backoffice/src/test_artefacts/stubs"
)

var _ = Describe("Server", func() {
	var (
		store   *fakes.RecordStore
		handler http.Handler
	)

	const base = "/v1/accounts/1/departments"

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		request := httptest.NewRequest(method, path, reader)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	decode := func(recorder *httptest.ResponseRecorder, target any) {
		Expect(json.Unmarshal(recorder.Body.Bytes(), target)).To(Succeed())
	}

	serials := func(records []adapter.RecordDTO) []string {
		out := make([]string, len(records))
		for i, record := range records {
			out[i] = record.SerialID
		}
		return out
	}

	BeforeEach(func() {
		// Ops > IT > Infra, Finance
		store = fakes.NewRecordStore(
			stubs.Record("A", "", "Ops"),
			stubs.Record("B", "A", "IT"),
			stubs.Record("C", "B", "Infra"),
			stubs.Record("D", "", "Finance"),
		)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := hierarchy.NewHierarchyService(store, store, logger)
		handler = adapter.NewServer(logger, 0, service).Handler()
	})

	Describe("GET /tree", func() {
		It("returns forest and flat view in display order", func() {
			// ACT
			recorder := do(http.MethodGet, base+"/tree", "")

			// ASSERT
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(Equal("application/json"))

			var response adapter.TreeResponse
			decode(recorder, &response)

			Expect(response.Forest).To(HaveLen(2))
			Expect(response.Forest[0].SerialID).To(Equal("D"))
			Expect(response.Forest[1].Children[0].Children[0].SerialID).To(Equal("C"))

			flat := make([]string, 0, len(response.Flat))
			levels := make([]int, 0, len(response.Flat))
			for _, node := range response.Flat {
				flat = append(flat, node.SerialID)
				levels = append(levels, node.Level)
			}
			Expect(flat).To(Equal([]string{"D", "A", "B", "C"}))
			Expect(levels).To(Equal([]int{0, 0, 1, 2}))
			Expect(response.Flat[1].Expandable).To(BeTrue())
			Expect(response.Flat[3].Expandable).To(BeFalse())
		})

		It("keeps the ancestors of the matches when searching", func() {
			recorder := do(http.MethodGet, base+"/tree?q=infra", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var response adapter.TreeResponse
			decode(recorder, &response)
			Expect(response.Forest).To(HaveLen(1))
			Expect(response.Flat).To(HaveLen(3))
			Expect(response.Flat[0].SerialID).To(Equal("A"))
		})

		It("returns an empty forest when nothing matches", func() {
			recorder := do(http.MethodGet, base+"/tree?q=nothing-like-this", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{"forest": [], "flat": []}`))
		})

		It("filters active financial accounts", func() {
			// ARRANGE
			store.Seed(
				stubs.NewFinancialAccountStub().WithSerialID("1").WithName("Assets").
					WithProperties(map[string]interface{}{"is_active": true}).Get(),
				stubs.NewFinancialAccountStub().WithSerialID("2").WithName("Closed").
					WithProperties(map[string]interface{}{"is_active": false}).Get(),
			)

			// ACT
			recorder := do(http.MethodGet, "/v1/accounts/1/financial-accounts/tree?activeOnly=true", "")

			// ASSERT
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var response adapter.TreeResponse
			decode(recorder, &response)
			Expect(response.Flat).To(HaveLen(1))
			Expect(response.Flat[0].Kind).To(Equal(entities.KindFinancialAccount))
		})

		It("rejects an unknown kind", func() {
			recorder := do(http.MethodGet, "/v1/accounts/1/projects/tree", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an invalid account id", func() {
			recorder := do(http.MethodGet, "/v1/accounts/abc/departments/tree", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("hides internal failures behind a generic message", func() {
			store.Err = errors.New("connection reset by peer")

			recorder := do(http.MethodGet, base+"/tree", "")

			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			Expect(recorder.Body.String()).To(ContainSubstring(domain.ErrUnavailableServer.Error()))
			Expect(recorder.Body.String()).NotTo(ContainSubstring("connection reset"))
		})
	})

	Describe("GET /search", func() {
		It("pages the direct matches sorted by name", func() {
			recorder := do(http.MethodGet, base+"/search?page=1&limit=2", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))

			var response adapter.RecordPageResponse
			decode(recorder, &response)
			Expect(response.Count).To(Equal(4))
			Expect(serials(response.List)).To(Equal([]string{"B", "A"}))
		})

		It("rejects a non numeric page", func() {
			recorder := do(http.MethodGet, base+"/search?page=first", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("navigation routes", func() {
		It("lists roots", func() {
			var roots []adapter.RecordDTO
			recorder := do(http.MethodGet, base+"/roots", "")
			decode(recorder, &roots)

			Expect(serials(roots)).To(Equal([]string{"D", "A"}))
			Expect(roots[0].ParentSerialID).To(BeNil())
		})

		It("lists children of a parent", func() {
			var children []adapter.RecordDTO
			recorder := do(http.MethodGet, base+"/by-parent-serial/A", "")
			decode(recorder, &children)

			Expect(serials(children)).To(Equal([]string{"B"}))
		})

		It("finds a record by serial", func() {
			var record adapter.RecordDTO
			recorder := do(http.MethodGet, base+"/by-serial/C", "")
			decode(recorder, &record)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(record.Name).To(Equal("Infra"))
			Expect(*record.ParentSerialID).To(Equal("B"))
		})

		It("returns 404 for an unknown serial", func() {
			recorder := do(http.MethodGet, base+"/by-serial/ZZZ", "")

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})

		It("excludes the record and its descendants from the legal parents", func() {
			var parents []adapter.RecordDTO
			recorder := do(http.MethodGet, base+"/legal-parents?serialId=B", "")
			decode(recorder, &parents)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(serials(parents)).To(Equal([]string{"A", "D"}))
		})

		It("offers every record as parent of a new one", func() {
			var parents []adapter.RecordDTO
			decode(do(http.MethodGet, base+"/legal-parents", ""), &parents)

			Expect(parents).To(HaveLen(4))
		})
	})

	Describe("writes", func() {
		It("creates a record under an existing parent", func() {
			// ACT
			recorder := do(http.MethodPost, base, `{"serial_id": "E", "parent_serial_id": "D", "name": "Payroll"}`)

			// ASSERT
			Expect(recorder.Code).To(Equal(http.StatusCreated))

			var record adapter.RecordDTO
			decode(recorder, &record)
			Expect(record.SerialID).To(Equal("E"))
			Expect(record.Kind).To(Equal(entities.KindDepartment))
			Expect(record.Properties).To(MatchJSON(`{}`))
		})

		DescribeTable("maps domain errors to status codes",
			func(method, path, body string, status int) {
				Expect(do(method, base+path, body).Code).To(Equal(status))
			},
			Entry("duplicate serial", http.MethodPost, "", `{"serial_id": "A", "name": "Again"}`, http.StatusConflict),
			Entry("unknown parent", http.MethodPost, "", `{"serial_id": "E", "parent_serial_id": "X", "name": "Orphan"}`, http.StatusNotFound),
			Entry("missing name", http.MethodPost, "", `{"serial_id": "E"}`, http.StatusBadRequest),
			Entry("malformed body", http.MethodPost, "", `{"serial_id":`, http.StatusBadRequest),
			Entry("moving under a descendant", http.MethodPut, "/A", `{"parent_serial_id": "C", "name": "Ops"}`, http.StatusConflict),
			Entry("updating an unknown record", http.MethodPut, "/ZZZ", `{"name": "Ghost"}`, http.StatusNotFound),
			Entry("deleting a parent", http.MethodDelete, "/A", "", http.StatusConflict),
			Entry("deleting an unknown record", http.MethodDelete, "/ZZZ", "", http.StatusNotFound),
		)

		It("renames a serial keeping the children attached", func() {
			// ACT
			recorder := do(http.MethodPut, base+"/A", `{"serial_id": "OPS", "name": "Operations"}`)

			// ASSERT
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var children []adapter.RecordDTO
			decode(do(http.MethodGet, base+"/by-parent-serial/OPS", ""), &children)
			Expect(serials(children)).To(Equal([]string{"B"}))
		})

		It("deletes a leaf", func() {
			recorder := do(http.MethodDelete, base+"/C", "")

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(store.All()).To(HaveLen(3))
		})

		It("accepts a sync batch scoped by the route", func() {
			// ACT
			recorder := do(http.MethodPost, base+"/sync", `{"records": [
				{"serial_id": "E", "parent_serial_id": "D", "name": "Payroll"},
				{"serial_id": "C", "deleted": true}
			]}`)

			// ASSERT
			Expect(recorder.Code).To(Equal(http.StatusAccepted))
			Expect(store.Synced).To(HaveLen(1))
			for _, record := range store.Synced[0].Records {
				Expect(record.Scope()).To(Equal(domain.Scope{AccountID: 1, Kind: entities.KindDepartment}))
			}
		})

		It("rejects an empty sync batch", func() {
			recorder := do(http.MethodPost, base+"/sync", `{"records": []}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(store.Synced).To(BeEmpty())
		})
	})
})
