package askcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	finchatcmder "github.com/finpersona/finchat/cmd/finchat"
	askcmder "github.com/finpersona/finchat/cmd/finchat/ask"
)

var _ = Describe("NewAskCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Use).To(Equal("ask <question>"))
	})

	It("requires a question argument", func() {
		cmd := askcmder.NewAskCmd()
		cmd.SetArgs([]string{})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
	})

	It("has --target flag with the default service URL", func() {
		cmd := askcmder.NewAskCmd()
		flag := cmd.Flags().Lookup("target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("http://localhost:8080"))
	})

	It("has --user flag with the default user", func() {
		cmd := askcmder.NewAskCmd()
		flag := cmd.Flags().Lookup("user")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("demo"))
	})

	It("has a --simulate mode flag", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Flags().Lookup("simulate")).NotTo(BeNil())
	})
})

var _ = Describe("Ask command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "finchat-ask-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .finchat dir so config resolution stays in the sandbox
		err = os.MkdirAll(filepath.Join(tmpDir, ".finchat"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	// The ask command reads the root --debug flag, so execution goes
	// through the root command.
	It("answers a question locally with --simulate", func() {
		cmd := finchatcmder.NewFinchatCmd()
		cmd.SetArgs([]string{"ask", "--simulate", "how do I start saving for an emergency fund?"})
		err := cmd.Execute()
		Expect(err).NotTo(HaveOccurred())
	})

	It("joins multiple arguments into one question", func() {
		cmd := finchatcmder.NewFinchatCmd()
		cmd.SetArgs([]string{"ask", "--simulate", "how", "should", "I", "budget?"})
		err := cmd.Execute()
		Expect(err).NotTo(HaveOccurred())
	})
})
