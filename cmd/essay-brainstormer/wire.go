// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/internal/generate"
	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/internal/transcript"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// buildManager wires the generation client and, when enabled, the
// transcript store into a session manager. The returned func closes the
// store.
func buildManager(c types.Config, log *zap.Logger) (*session.Manager, func(), error) {
	gen, err := generate.New(c.AI, log)
	if err != nil {
		return nil, nil, err
	}

	var rec session.Recorder
	closeFn := func() {}
	if c.Transcript.Enabled {
		store, err := transcript.NewStore(c.Transcript)
		if err != nil {
			return nil, nil, err
		}
		rec = store
		closeFn = func() {
			if err := store.Close(); err != nil {
				log.Warn("closing transcript store", zap.Error(err))
			}
		}
	}

	mgr := session.NewManager(gen, rec, session.Options{Timeout: c.AI.Timeout, Logger: log})
	return mgr, closeFn, nil
}
