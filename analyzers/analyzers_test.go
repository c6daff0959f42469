package analyzers_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Cristalinsg/taintgraph/analyzers"
	"github.com/Cristalinsg/taintgraph/report"
	"github.com/Cristalinsg/taintgraph/taint"
	"github.com/Cristalinsg/taintgraph/testutils"
)

var _ = Describe("Analyzer configurations", func() {
	Context("registry", func() {
		It("lists the built-in configurations", func() {
			Expect(analyzers.Names()).To(Equal([]string{
				"code-injection", "log-forging", "path-traversal", "secret-leak",
			}))
		})

		It("rejects unknown names", func() {
			_, err := analyzers.Get("bogus")
			Expect(err).To(HaveOccurred())
		})

		It("builds a fresh config per call", func() {
			factory, err := analyzers.Get("code-injection")
			Expect(err).NotTo(HaveOccurred())
			Expect(factory().Info.ID).To(Equal("TG101"))
			Expect(analyzers.All()).To(HaveLen(4))
		})
	})

	Context("sample graphs", func() {
		for _, sample := range testutils.All() {
			It(sample.Analyzer+": "+sample.Name, func() {
				factory, err := analyzers.Get(sample.Analyzer)
				Expect(err).NotTo(HaveOccurred())
				cfg := factory()

				g, err := sample.Load()
				Expect(err).NotTo(HaveOccurred())

				paths, err := taint.New(cfg, nil).FindPaths(context.Background(), g)
				Expect(err).NotTo(HaveOccurred())

				findings := report.New(paths, cfg.Info)
				Expect(findings).To(HaveLen(sample.Findings))
				for _, f := range findings {
					Expect(f.RuleID).To(Equal(cfg.Info.ID))
					Expect(f.Path[0].ID).To(Equal(f.Source.ID))
					Expect(f.Path[len(f.Path)-1].ID).To(Equal(f.Sink.ID))
				}
			})
		}
	})
})
