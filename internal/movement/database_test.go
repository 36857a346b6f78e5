package movement

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newTestMovement := func(id string) *Movement {
		amount := 1235.00
		confidence := 95
		m := &Movement{
			ID:          id,
			Filename:    "test.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   time.Now().UTC().Truncate(time.Second),
			UpdatedAt:   time.Now().UTC().Truncate(time.Second),
		}
		m.Amount = &amount
		m.Date = "2024-03-15"
		m.Vendor = "OXXO"
		m.Category = "Food"
		m.TransactionType = extract.TypeExpense
		m.Confidence.Amount = &confidence
		m.Confidence.Overall = 95
		return m
	}

	Describe("SaveMovement and GetMovement", func() {
		It("round-trips a movement", func() {
			saved := newTestMovement("test-id")
			Expect(db.SaveMovement(saved)).To(Succeed())

			got, err := db.GetMovement("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("test-id"))
			Expect(got.Amount).To(HaveValue(Equal(1235.00)))
			Expect(got.Date).To(Equal("2024-03-15"))
			Expect(got.Vendor).To(Equal("OXXO"))
			Expect(got.TransactionType).To(Equal("expense"))
			Expect(got.Confidence.Amount).To(HaveValue(Equal(95)))
		})

		It("overwrites on duplicate ID", func() {
			Expect(db.SaveMovement(newTestMovement("test-id"))).To(Succeed())
			updated := newTestMovement("test-id")
			updated.Vendor = "Soriana"
			Expect(db.SaveMovement(updated)).To(Succeed())

			got, err := db.GetMovement("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Vendor).To(Equal("Soriana"))
		})

		It("fails for an unknown ID", func() {
			_, err := db.GetMovement("missing")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("movement not found"))
		})
	})

	Describe("ListMovements", func() {
		When("the database is empty", func() {
			It("returns an empty slice, not nil", func() {
				movements, err := db.ListMovements()
				Expect(err).NotTo(HaveOccurred())
				Expect(movements).NotTo(BeNil())
				Expect(movements).To(BeEmpty())
			})
		})

		When("movements exist", func() {
			BeforeEach(func() {
				Expect(db.SaveMovement(newTestMovement("id1"))).To(Succeed())
				Expect(db.SaveMovement(newTestMovement("id2"))).To(Succeed())
			})

			It("returns all of them", func() {
				movements, err := db.ListMovements()
				Expect(err).NotTo(HaveOccurred())
				Expect(movements).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteMovement", func() {
		BeforeEach(func() {
			Expect(db.SaveMovement(newTestMovement("test-id"))).To(Succeed())
		})

		It("removes the movement", func() {
			Expect(db.DeleteMovement("test-id")).To(Succeed())
			_, err := db.GetMovement("test-id")
			Expect(err).To(HaveOccurred())
		})

		It("is a no-op for an unknown ID", func() {
			Expect(db.DeleteMovement("missing")).To(Succeed())
		})
	})

	Describe("persistence across reopen", func() {
		It("keeps saved movements", func() {
			Expect(db.SaveMovement(newTestMovement("test-id"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			got, err := db.GetMovement("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Vendor).To(Equal("OXXO"))
		})
	})
})
