package inmemory

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
	"github.com/finpersona/finchat/pkg/storage"
)

var _ = Describe("Driver", func() {
	var (
		driver *Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = NewDriver()
		ctx = context.Background()
	})

	Describe("Append", func() {
		It("rejects a nil message", func() {
			Expect(driver.Append(ctx, nil)).To(MatchError(ContainSubstring("nil message")))
		})

		It("assigns monotonic IDs across users", func() {
			first := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: "hello"}
			second := &storage.Message{UserID: "other", Sender: chat.SenderUser, Text: "hi"}

			Expect(driver.Append(ctx, first)).To(Succeed())
			Expect(driver.Append(ctx, second)).To(Succeed())

			Expect(first.ID).To(Equal(uint64(1)))
			Expect(second.ID).To(Equal(uint64(2)))
		})

		It("stamps CreatedAt when unset and preserves it when set", func() {
			stamped := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			auto := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: "hello"}
			manual := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: "hi", CreatedAt: stamped}

			Expect(driver.Append(ctx, auto)).To(Succeed())
			Expect(driver.Append(ctx, manual)).To(Succeed())

			Expect(auto.CreatedAt).NotTo(BeZero())

			messages, err := driver.Messages(ctx, "demo", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages[1].CreatedAt).To(Equal(stamped))
		})

		It("stores a copy, so later caller mutation does not leak in", func() {
			msg := &storage.Message{UserID: "demo", Sender: chat.SenderAssistant, Text: "original"}
			Expect(driver.Append(ctx, msg)).To(Succeed())

			msg.Text = "mutated"

			messages, err := driver.Messages(ctx, "demo", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages[0].Text).To(Equal("original"))
		})
	})

	Describe("Messages", func() {
		It("returns an empty slice for an unknown user", func() {
			messages, err := driver.Messages(ctx, "nobody", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(BeEmpty())
		})

		It("returns the conversation in append order", func() {
			for i := 0; i < 4; i++ {
				msg := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: fmt.Sprintf("message %d", i)}
				Expect(driver.Append(ctx, msg)).To(Succeed())
			}

			messages, err := driver.Messages(ctx, "demo", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(4))
			for i, msg := range messages {
				Expect(msg.Text).To(Equal(fmt.Sprintf("message %d", i)))
			}
		})

		It("keeps only the most recent messages when limited", func() {
			for i := 0; i < 5; i++ {
				msg := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: fmt.Sprintf("message %d", i)}
				Expect(driver.Append(ctx, msg)).To(Succeed())
			}

			messages, err := driver.Messages(ctx, "demo", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Text).To(Equal("message 3"))
			Expect(messages[1].Text).To(Equal("message 4"))
		})

		It("treats a non-positive limit as no limit", func() {
			for i := 0; i < 3; i++ {
				msg := &storage.Message{UserID: "demo", Sender: chat.SenderUser, Text: "hello"}
				Expect(driver.Append(ctx, msg)).To(Succeed())
			}

			messages, err := driver.Messages(ctx, "demo", -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(3))
		})

		It("round-trips insight tags on assistant messages", func() {
			msg := &storage.Message{
				UserID: "demo",
				Sender: chat.SenderAssistant,
				Text:   "advice",
				Insights: []advisor.Insight{
					{Category: "savings", Description: "build an emergency fund", Importance: "high"},
				},
			}
			Expect(driver.Append(ctx, msg)).To(Succeed())

			messages, err := driver.Messages(ctx, "demo", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages[0].Insights).To(HaveLen(1))
			Expect(messages[0].Insights[0].Category).To(Equal("savings"))
		})
	})

	Describe("Users", func() {
		It("is empty for a fresh driver", func() {
			users, err := driver.Users(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})

		It("returns sorted user IDs", func() {
			for _, userID := range []string{"claire", "alex", "bo"} {
				msg := &storage.Message{UserID: userID, Sender: chat.SenderUser, Text: "hello"}
				Expect(driver.Append(ctx, msg)).To(Succeed())
			}

			users, err := driver.Users(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(Equal([]string{"alex", "bo", "claire"}))
		})
	})

	It("counts messages across users", func() {
		Expect(driver.Count()).To(BeZero())

		Expect(driver.Append(ctx, &storage.Message{UserID: "a", Sender: chat.SenderUser, Text: "1"})).To(Succeed())
		Expect(driver.Append(ctx, &storage.Message{UserID: "b", Sender: chat.SenderUser, Text: "2"})).To(Succeed())

		Expect(driver.Count()).To(Equal(2))
	})

	It("closes without error", func() {
		Expect(driver.Close()).To(Succeed())
	})
})
