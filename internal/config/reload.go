package config

import "reflect"

// RestartRequired lists the sections that differ between old and updated and
// cannot be applied to a running daemon. engine.passes, engine.timeout,
// engine.queue_timeout and monitoring.logging.level are reloadable and never
// listed.
func RestartRequired(old, updated *Config) []string {
	var changed []string

	oe, ue := old.Engine, updated.Engine
	oe.Passes, ue.Passes = 0, 0
	oe.Timeout, ue.Timeout = 0, 0
	oe.QueueTimeout, ue.QueueTimeout = 0, 0
	if oe != ue {
		changed = append(changed, "engine")
	}

	om, um := old.Monitoring, updated.Monitoring
	om.Logging.Level, um.Logging.Level = "", ""
	if om != um {
		changed = append(changed, "monitoring")
	}

	sections := []struct {
		name string
		a, b any
	}{
		{"server", old.Server, updated.Server},
		{"workspace", old.Workspace, updated.Workspace},
		{"history", old.History, updated.History},
		{"events", old.Events, updated.Events},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.a, s.b) {
			changed = append(changed, s.name)
		}
	}
	return changed
}
