package repositories_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/repositories"
	"backoffice/src/test_artefacts/comparer"
	"backoffice/src/test_artefacts/fakes"
	"backoffice/src/test_artefacts/stubs"
)

var _ = Describe("CachedRecordRepository", func() {
	var (
		source     *fakes.RecordStore
		cache      *fakes.CacheStore
		repository *repositories.CachedRecordRepository
		scope      domain.Scope
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		scope = domain.Scope{AccountID: stubs.DefaultAccountID, Kind: entities.KindDepartment}
		source = fakes.NewRecordStore(
			stubs.NewRecordStub().WithSerialID("A").WithName("Ops").Get(),
			stubs.NewRecordStub().WithSerialID("B").WithParent("A").WithName("IT").Get(),
		)
		cache = fakes.NewCacheStore()
		repository = repositories.NewCachedRecordRepository(source, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Context("when the cache is cold", func() {
		It("reads from the source and fills the cache in background", func() {
			// ACT
			records, err := repository.ListRecords(ctx, scope)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(source.ListCalls).To(Equal(1))
			Eventually(cache.Len).Should(Equal(1))
		})
	})

	Context("when the cache is warm", func() {
		It("serves the records without hitting the source", func() {
			// ARRANGE
			expected, err := repository.ListRecords(ctx, scope)
			Expect(err).NotTo(HaveOccurred())
			Eventually(cache.Len).Should(Equal(1))

			// ACT
			records, err := repository.ListRecords(ctx, scope)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(source.ListCalls).To(Equal(1))
			Expect(records).To(BeComparableTo(expected, comparer.TimeWithinTolerance(1), comparer.JSONRawMessage()))
		})

		It("keeps a separate entry per filter set", func() {
			_, err := repository.ListRecords(ctx, scope)
			Expect(err).NotTo(HaveOccurred())
			_, err = repository.ListRecords(ctx, scope, domain.ActiveOnly)
			Expect(err).NotTo(HaveOccurred())

			Eventually(cache.Len).Should(Equal(2))
		})
	})

	Context("when the cache fails", func() {
		It("falls back to the source", func() {
			// ARRANGE
			cache.GetErr = errors.New("cluster down")

			// ACT
			records, err := repository.ListRecords(ctx, scope)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})
	})

	Context("when the source fails", func() {
		It("returns the error", func() {
			source.Err = errors.New("connection refused")

			_, err := repository.ListRecords(ctx, scope)

			Expect(err).To(MatchError(ContainSubstring("postgres query failed")))
		})
	})

	Context("when a scope is invalidated", func() {
		It("drops every cached variation of that scope only", func() {
			// ARRANGE
			other := domain.Scope{AccountID: 2, Kind: entities.KindDepartment}
			for _, call := range []func() error{
				func() error { _, err := repository.ListRecords(ctx, scope); return err },
				func() error { _, err := repository.ListRecords(ctx, scope, domain.ActiveOnly); return err },
				func() error { _, err := repository.ListRecords(ctx, other); return err },
			} {
				Expect(call()).To(Succeed())
			}
			Eventually(cache.Len).Should(Equal(3))

			// ACT
			err := repository.InvalidateScopes(ctx, []domain.Scope{scope, scope})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(cache.Len()).To(Equal(1))
		})
	})
})
