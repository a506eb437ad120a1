package cmd

import (
	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

// logNotifier reports store changes to the session log.
type logNotifier struct {
	log core.Logger
}

func (n *logNotifier) GroupsChanged(groups []vault.Group) error {
	n.log.Debug("groups changed", "count", len(groups))
	return nil
}

func (n *logNotifier) RecordsChanged(parentID uint32, records []vault.Record) error {
	n.log.Debug("records changed", "group", parentID, "count", len(records))
	return nil
}
