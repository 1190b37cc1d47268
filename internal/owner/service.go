// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package owner

import (
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/nodegraft/internal/attach"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/resolve"
	"github.com/holomush/nodegraft/internal/scene"
	"github.com/holomush/nodegraft/pkg/errutil"
)

// Descriptor describes the payload of formatted text given to Register.
type Descriptor struct {
	Kind   attach.Kind
	Source string
}

// Service is the host-facing API over a Directory. Every operation reports
// success as a bool and logs the reason for a failure.
type Service struct {
	dir    *Directory
	logger *slog.Logger

	firstPersonRoot scene.Node
}

// NewService creates a service over dir. A nil logger selects slog.Default().
func NewService(dir *Directory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dir: dir, logger: logger}
}

// Directory returns the directory the service operates on.
func (s *Service) Directory() *Directory { return s.dir }

// SetFirstPersonRoot sets the root that paired owners' edits are mirrored
// into. Records of the first-person registry are re-applied to it.
func (s *Service) SetFirstPersonRoot(root scene.Node) bool {
	s.firstPersonRoot = root
	if root == nil || s.dir.FirstPerson().Len() == 0 {
		return true
	}
	return s.ok("reapply first-person attachments", s.dir.FirstPerson().ReapplyAll(root))
}

// FirstPersonRoot returns the root set by SetFirstPersonRoot.
func (s *Service) FirstPersonRoot() scene.Node { return s.firstPersonRoot }

// Register records formatted for owner and applies it to root. A nil root
// with an owner model resolves against a freshly built copy of the model,
// so the record is cached and validated before the host's tree exists. A
// nil root without a model leaves the record pending.
func (s *Service) Register(owner ulid.ULID, formatted string, desc Descriptor, root scene.Node, insert bool) bool {
	reg := s.dir.Ensure(owner)
	req, err := reg.Parse(formatted, desc.Kind, desc.Source)
	if err != nil {
		return s.fail("parse attachment", err, owner, formatted)
	}

	if root == nil {
		root = s.scratchRoot(owner)
	}
	rec, err := reg.Register(root, req, insert)
	if err != nil {
		return s.fail("register attachment", err, owner, formatted)
	}
	if !insert {
		rec.Release()
	}

	if s.dir.Paired(owner) {
		s.mirrorRegister(owner, formatted, desc, insert)
	}
	return true
}

func (s *Service) mirrorRegister(owner ulid.ULID, formatted string, desc Descriptor, insert bool) {
	fp := s.dir.FirstPerson()
	req, err := fp.Parse(formatted, desc.Kind, desc.Source)
	if err != nil {
		return
	}
	rec, err := fp.Register(s.firstPersonRoot, req, insert)
	if err != nil {
		s.logger.Warn("first-person attachment not mirrored",
			"owner", owner.String(),
			"spec", formatted,
			"error", err)
		return
	}
	if !insert {
		rec.Release()
	}
}

// unmirror removes the first-person copies of records and undoes them on the
// first-person root. Nested copies go with the record they sit under.
func (s *Service) unmirror(records []*attach.Record) {
	fp := s.dir.FirstPerson()
	for _, rec := range records {
		if mirrored, err := fp.RemoveFormatted(s.firstPersonRoot, rec.Format()); err == nil {
			releaseAll(mirrored)
		}
	}
}

// scratchRoot builds the owner's model with its current records applied,
// or returns nil when the owner has no model.
func (s *Service) scratchRoot(owner ulid.ULID) scene.Node {
	if _, ok := s.dir.Model(owner); !ok {
		return nil
	}
	root, err := s.dir.Build(owner)
	if err != nil {
		s.logger.Warn("owner model unavailable, attachment stays pending",
			"owner", owner.String(),
			"error", err)
		return nil
	}
	return root
}

// Remove deletes the record matching formatted and every record nested
// below it, undoing them on root when root is non-nil.
func (s *Service) Remove(owner ulid.ULID, formatted string, root scene.Node) bool {
	reg := s.dir.Registry(owner)
	if reg == nil {
		return false
	}
	removed, err := reg.RemoveFormatted(root, formatted)
	if err != nil {
		return s.fail("remove attachment", err, owner, formatted)
	}
	releaseAll(removed)

	if s.dir.Paired(owner) {
		if mirrored, err := s.dir.FirstPerson().RemoveFormatted(s.firstPersonRoot, formatted); err == nil {
			releaseAll(mirrored)
		}
	}
	return true
}

// Has reports whether owner has a record matching formatted. For a paired
// owner the first-person root is searched too.
func (s *Service) Has(owner ulid.ULID, formatted string) bool {
	if reg := s.dir.Registry(owner); reg != nil && reg.FindFormatted(formatted) != nil {
		return true
	}
	if !s.dir.Paired(owner) || s.firstPersonRoot == nil {
		return false
	}
	req, err := attach.ParseRequest(s.dir.Pool(), formatted, attach.KindNode, "")
	if err != nil {
		return false
	}
	defer req.Release()
	full := nodepath.Join(req.Sparse.View(), nodepath.ViewOf(req.Leaf))
	defer full.Release()
	n, err := resolve.Sparse(s.firstPersonRoot, full.View())
	if err != nil {
		s.logError("search first-person root", err)
		return false
	}
	return n != nil
}

// CopyAll copies from's records into to's registry. Records already
// present in to are skipped. When to is paired the copies are mirrored into
// the first-person registry and applied to the first-person root.
func (s *Service) CopyAll(from, to ulid.ULID) bool {
	src := s.dir.Registry(from)
	if src == nil || src.Len() == 0 {
		return false
	}
	copied := s.dir.Ensure(to).CopyFrom(src)
	s.logger.Debug("attachments copied",
		"from", from.String(),
		"to", to.String(),
		"copied", copied)

	if s.dir.Paired(to) {
		fp := s.dir.FirstPerson()
		if fp.CopyFrom(src) > 0 && s.firstPersonRoot != nil {
			s.ok("reapply first-person attachments", fp.ReapplyAll(s.firstPersonRoot))
		}
	}
	return true
}

// RemoveAll forgets every record of owner. A paired owner's first-person
// copies are removed and undone too.
func (s *Service) RemoveAll(owner ulid.ULID) bool {
	if reg := s.dir.Registry(owner); reg != nil && s.dir.Paired(owner) {
		s.unmirror(reg.Records())
	}
	return s.dir.Drop(owner)
}

// RemoveAllBySourceTag removes owner's records registered with tag.
func (s *Service) RemoveAllBySourceTag(owner ulid.ULID, tag string) bool {
	reg := s.dir.Registry(owner)
	if reg == nil {
		return false
	}
	removed := reg.PurgeBySource(nil, tag)
	defer releaseAll(removed)
	if s.dir.Paired(owner) {
		releaseAll(s.dir.FirstPerson().PurgeBySource(s.firstPersonRoot, tag))
	}
	return len(removed) > 0
}

// ReapplyAll applies owner's records to a freshly built root. It reports
// false when any record failed; the records that could be applied are.
func (s *Service) ReapplyAll(owner ulid.ULID, root scene.Node) bool {
	reg := s.dir.Registry(owner)
	if reg == nil {
		return false
	}
	if err := reg.ReapplyAll(root); err != nil {
		return s.fail("reapply attachments", err, owner, "")
	}
	return true
}

func (s *Service) fail(msg string, err error, owner ulid.ULID, formatted string) bool {
	if attach.HasCode(err, resolve.CodeDepthLimitExceeded) {
		s.logError(msg, err)
		return false
	}
	s.logger.Debug(msg+" failed",
		"owner", owner.String(),
		"spec", formatted,
		"error", err)
	return false
}

func (s *Service) logError(msg string, err error) {
	errutil.LogError(s.logger, msg, err)
}

func (s *Service) ok(msg string, err error) bool {
	if err == nil {
		return true
	}
	s.logger.Debug(msg+" incomplete", "error", err)
	return false
}

func releaseAll(records []*attach.Record) {
	for _, rec := range records {
		rec.Release()
	}
}
