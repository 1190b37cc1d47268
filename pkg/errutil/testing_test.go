// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/nodegraft/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("ALREADY_EXISTS").Errorf("duplicate")
	errutil.AssertErrorCode(t, err, "ALREADY_EXISTS")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("path", `Body\Torso`).Errorf("not found")
	errutil.AssertErrorContext(t, err, "path", `Body\Torso`)
}
