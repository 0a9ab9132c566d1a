package simulated

import (
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finpersona/finchat/pkg/transport"
)

// fastConfig keeps specs quick while still exercising the pacing paths.
var fastConfig = Config{
	ConnectDelay: time.Millisecond,
	ChunkDelay:   time.Millisecond,
}

var _ = Describe("SplitChunks", func() {
	It("splits a body into chunks of at most maxWords words", func() {
		chunks := SplitChunks("one two three four five six seven", 3)

		Expect(chunks).To(Equal([]string{"one two three", "four five six", "seven"}))
		for _, chunk := range chunks {
			Expect(len(strings.Fields(chunk))).To(BeNumerically("<=", 3))
		}
	})

	It("reassembles to the exact body when chunks are joined with spaces", func() {
		bodies := []string{
			"Based on your transaction history, here are 3 opportunities",
			"here are 3 opportunities:\n\n1. First thing\n2. Second thing\n\nIn summary, start small.",
			"double  spaced",
		}
		for _, body := range bodies {
			Expect(strings.Join(SplitChunks(body, 3), " ")).To(Equal(body))
		}
	})

	It("keeps embedded newlines attached to their words", func() {
		chunks := SplitChunks("alpha beta\n\ngamma delta", 3)

		Expect(chunks).To(Equal([]string{"alpha beta\n\ngamma", "delta"}))
	})

	It("returns a single chunk when the body is shorter than maxWords", func() {
		Expect(SplitChunks("hello there", 3)).To(Equal([]string{"hello there"}))
	})

	It("splits evenly when the word count is a multiple of maxWords", func() {
		chunks := SplitChunks("a b c d e f", 3)

		Expect(chunks).To(Equal([]string{"a b c", "d e f"}))
	})

	It("returns no chunks for an empty body", func() {
		Expect(SplitChunks("", 3)).To(BeEmpty())
	})

	It("returns no chunks for a whitespace-only body", func() {
		Expect(SplitChunks("   \n\t  ", 3)).To(BeEmpty())
	})

	It("clamps maxWords below one to single-word chunks", func() {
		Expect(SplitChunks("a b c", 0)).To(Equal([]string{"a", "b", "c"}))
		Expect(SplitChunks("a b c", -5)).To(Equal([]string{"a", "b", "c"}))
	})

	It("is deterministic for the same input", func() {
		body := "the quick brown fox jumps over the lazy dog"

		Expect(SplitChunks(body, 3)).To(Equal(SplitChunks(body, 3)))
	})
})

var _ = Describe("Transport", func() {
	ctx := context.Background()

	It("starts in the connecting state", func() {
		tr := New("hello world", fastConfig)

		Expect(tr.State()).To(Equal(transport.StateConnecting))
	})

	It("applies default delays for a zero config", func() {
		tr := New("hello", Config{})

		Expect(tr.connectDelay).To(Equal(defaultConnectDelay))
		Expect(tr.chunkDelay).To(Equal(defaultChunkDelay))
	})

	Context("Open", func() {
		It("transitions to open after the connect delay", func() {
			tr := New("hello world", fastConfig)

			Expect(tr.Open(ctx)).To(Succeed())
			Expect(tr.State()).To(Equal(transport.StateOpen))
		})

		It("rejects a second Open", func() {
			tr := New("hello", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())

			err := tr.Open(ctx)
			Expect(err).To(MatchError(ContainSubstring("already open")))
		})

		It("returns the context error when canceled during the connect delay", func() {
			tr := New("hello", Config{ConnectDelay: time.Second, ChunkDelay: time.Millisecond})
			cancelCtx, cancel := context.WithCancel(ctx)
			cancel()

			err := tr.Open(cancelCtx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(tr.State()).To(Equal(transport.StateClosed))
		})

		It("fails after Close", func() {
			tr := New("hello", fastConfig)
			Expect(tr.Close()).To(Succeed())

			Expect(tr.Open(ctx)).To(MatchError(transport.ErrClosed))
		})
	})

	Context("Next", func() {
		It("fails before the transport is open", func() {
			tr := New("hello", fastConfig)

			chunk, err := tr.Next()
			Expect(err).To(MatchError(transport.ErrClosed))
			Expect(chunk).To(BeNil())
		})

		It("yields the chunk sequence in order, then done, then ErrClosed", func() {
			tr := New("one two three four five six seven", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())

			var texts []string
			for {
				chunk, err := tr.Next()
				Expect(err).NotTo(HaveOccurred())
				if chunk.Done {
					break
				}
				texts = append(texts, chunk.Text)
			}
			Expect(texts).To(Equal([]string{"one two three", "four five six", "seven"}))

			_, err := tr.Next()
			Expect(err).To(MatchError(transport.ErrClosed))
		})

		It("emits done immediately for an empty body", func() {
			tr := New("", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())

			chunk, err := tr.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Done).To(BeTrue())
			Expect(chunk.Text).To(BeEmpty())
		})

		It("emits done exactly once", func() {
			tr := New("hello", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())

			_, err := tr.Next()
			Expect(err).NotTo(HaveOccurred())
			chunk, err := tr.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Done).To(BeTrue())

			for i := 0; i < 3; i++ {
				_, err := tr.Next()
				Expect(err).To(MatchError(transport.ErrClosed))
			}
		})

		It("paces chunks by at least the chunk delay", func() {
			tr := New("a b c d e f g h i", Config{
				ConnectDelay: time.Millisecond,
				ChunkDelay:   20 * time.Millisecond,
			})
			Expect(tr.Open(ctx)).To(Succeed())

			start := time.Now()
			for i := 0; i < 3; i++ {
				_, err := tr.Next()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(time.Since(start)).To(BeNumerically(">=", 60*time.Millisecond))
		})

		It("drops a chunk whose pacing wait is interrupted by Close", func() {
			tr := New("never delivered", Config{
				ConnectDelay: time.Millisecond,
				ChunkDelay:   time.Second,
			})
			Expect(tr.Open(ctx)).To(Succeed())

			type result struct {
				chunk *transport.Chunk
				err   error
			}
			results := make(chan result, 1)
			go func() {
				chunk, err := tr.Next()
				results <- result{chunk: chunk, err: err}
			}()

			// Let the goroutine reach the pacing wait before closing.
			time.Sleep(20 * time.Millisecond)
			Expect(tr.Close()).To(Succeed())

			var res result
			Eventually(results, 2*time.Second, 10*time.Millisecond).Should(Receive(&res))
			Expect(res.err).To(MatchError(transport.ErrClosed))
			Expect(res.chunk).To(BeNil())
		})
	})

	Context("Close", func() {
		It("is idempotent", func() {
			tr := New("hello", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())

			Expect(tr.Close()).To(Succeed())
			Expect(tr.Close()).To(Succeed())
			Expect(tr.State()).To(Equal(transport.StateClosed))
		})

		It("is terminal", func() {
			tr := New("hello", fastConfig)
			Expect(tr.Open(ctx)).To(Succeed())
			Expect(tr.Close()).To(Succeed())

			_, err := tr.Next()
			Expect(err).To(MatchError(transport.ErrClosed))
			Expect(tr.Open(ctx)).To(MatchError(transport.ErrClosed))
			Expect(tr.State()).To(Equal(transport.StateClosed))
		})
	})
})
