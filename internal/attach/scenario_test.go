// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach_test

import (
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/nodegraft/internal/attach"
	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/scene"
)

var _ = Describe("Registry lifecycle", func() {
	var (
		pool *intern.Pool
		reg  *attach.Registry
	)

	build := func(src string) *scene.MemNode {
		doc, err := scene.ParseDocument([]byte(src))
		Expect(err).NotTo(HaveOccurred())
		return doc.Build(pool)
	}

	register := func(root scene.Node, text string) error {
		req, err := reg.Parse(text, attach.KindNode, "scenario")
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.Register(root, req, true)
		return err
	}

	BeforeEach(func() {
		pool = intern.NewPool()
		reg = attach.NewRegistry(attach.Config{
			Pool:   pool,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
	})

	Context("when no tree is loaded yet", func() {
		It("keeps the edit pending and applies it to the next tree", func() {
			Expect(register(nil, `Torso|Prop`)).To(Succeed())
			Expect(reg.Len()).To(Equal(1))
			Expect(reg.Records()[0].Resolved()).To(BeFalse())

			root := build(bodyDoc)
			Expect(reg.ReapplyAll(root)).To(Succeed())

			torso := scene.ChildNamed(root, pool.Intern("Torso"))
			Expect(scene.ChildNamed(torso, pool.Intern("Prop"))).NotTo(BeNil())
			Expect(reg.Records()[0].Depth()).To(Equal(2))
		})

		It("refuses the same edit twice", func() {
			Expect(register(nil, `Torso|Prop`)).To(Succeed())
			err := register(nil, `Torso|Prop`)
			Expect(attach.HasCode(err, attach.CodeAlreadyExists)).To(BeTrue())
			Expect(reg.Len()).To(Equal(1))
		})
	})

	Context("when the tree is regenerated", func() {
		It("re-applies every edit to each new tree", func() {
			first := build(bodyDoc)
			Expect(register(first, `Torso|Prop`)).To(Succeed())
			Expect(register(first, `Torso\Prop|Cap`)).To(Succeed())
			Expect(register(first, `Legs|Sock`)).To(Succeed())

			for range 3 {
				next := build(bodyDoc)
				Expect(reg.ReapplyAll(next)).To(Succeed())
				Expect(scene.Format(next)).To(Equal(scene.Format(first)))
			}
		})

		It("tolerates an inserted ancestor", func() {
			Expect(register(build(bodyDoc), `Torso|Prop`)).To(Succeed())

			rebuilt := build(spineDoc)
			Expect(reg.ReapplyAll(rebuilt)).To(Succeed())
			Expect(scene.Format(rebuilt)).To(ContainSubstring("      +Prop\n"))
		})
	})

	Context("with a parent wrapper", func() {
		It("restores the wrapped node on removal", func() {
			root := build(bodyDoc)
			original := scene.Format(root)
			Expect(register(root, `Torso|^Wrapper`)).To(Succeed())
			Expect(scene.Format(root)).To(ContainSubstring("+Wrapper"))

			q, err := reg.Parse(`Torso|^Wrapper`, attach.KindNode, "")
			Expect(err).NotTo(HaveOccurred())
			removed, err := reg.Remove(root, &q)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(HaveLen(1))
			Expect(scene.Format(root)).To(Equal(original))

			torso := scene.ChildNamed(root, pool.Intern("Torso"))
			Expect(torso).NotTo(BeNil())
			Expect(torso.Parent()).To(BeIdenticalTo(scene.Node(root)))
		})

		It("tears down deepest first before unwrapping", func() {
			root := build(bodyDoc)
			Expect(register(root, `Torso|^Wrapper`)).To(Succeed())
			Expect(register(root, `Wrapper\Torso|Prop`)).To(Succeed())

			Expect(reg.DetachAll(root)).To(Succeed())
			Expect(scene.Format(root)).To(Equal(scene.Format(build(bodyDoc))))
		})
	})
})
