package postgres_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/convlog/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("KEEPSAKE_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("KEEPSAKE_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Log", func() {
	var (
		ctx context.Context
		log *postgres.Log
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		log, err = postgres.NewLog(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if log != nil {
			log.Close()
		}
	})

	It("appends and reads back messages", func() {
		user := "pg-" + uuid.NewString()
		Expect(log.AppendMessage(ctx, user, "Human", "hi", map[string]any{"k": "v"})).To(Succeed())
		Expect(log.AppendMessage(ctx, user, "Agent", "hello", nil)).To(Succeed())

		entries, err := log.History(ctx, user, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Text).To(Equal("hi"))
		Expect(entries[0].Metadata).To(HaveKeyWithValue("k", "v"))
		Expect(entries[1].Text).To(Equal("hello"))
	})

	It("fails fast on an unreachable server", func() {
		_, err := postgres.NewLog(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
		Expect(err).To(HaveOccurred())
	})
})
