package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/finpersona/finchat/cmd/finchat/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --target flag with the default service URL", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("t"))
		Expect(flag.DefValue).To(Equal("http://localhost:8080"))
	})

	It("has --user flag with the default user", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("user")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("u"))
		Expect(flag.DefValue).To(Equal("demo"))
	})

	It("has --connect-timeout-ms flag with the default timeout", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("connect-timeout-ms")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("10000"))
	})

	It("has --chunk-delay-ms flag with the default pacing", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("chunk-delay-ms")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("200"))
	})

	It("has --simulate and --stream mode flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("simulate")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("stream")).NotTo(BeNil())
	})
})
